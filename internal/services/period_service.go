package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"anggaran/internal/budgettree"
	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
)

// periodService handles period lifecycle and budget snapshots.
type periodService struct {
	db          *gorm.DB
	aggregation AggregationServicer
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB, aggregation AggregationServicer) PeriodServicer {
	return &periodService{db: db, aggregation: aggregation}
}

// CreatePeriod creates a DRAFT period. With AutoPopulate the template is
// snapshotted into budget entries in the same transaction.
func (s *periodService) CreatePeriod(input CreatePeriodInput) (*models.Period, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period name is required")
	}
	if input.Year < 1900 || input.Year > 9999 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be between 1900 and 9999")
	}
	start, end := models.DateOnly(input.StartDate), models.DateOnly(input.EndDate)
	if !start.Before(end) {
		return nil, apperrors.ErrInvalidPeriodRange
	}

	period := &models.Period{
		Name:      name,
		Year:      input.Year,
		StartDate: start,
		EndDate:   end,
		Status:    models.PeriodStatusDraft,
		IsActive:  true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(period).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.AutoPopulate {
			_, err := populate(tx, period)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// AutoPopulate snapshots the current template into the period. A period is
// populated at most once; later calls fail with a conflict.
func (s *periodService) AutoPopulate(periodID string) (int, error) {
	var created int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		period, err := findPeriod(tx, periodID)
		if err != nil {
			return err
		}
		created, err = populate(tx, period)
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// populate writes the budget entries of period and returns how many were created.
func populate(tx *gorm.DB, period *models.Period) (int, error) {
	if period.Status == models.PeriodStatusClosed {
		return 0, apperrors.WithMessage(apperrors.ErrPeriodClosed, "a closed period cannot be populated")
	}

	var existing int64
	if err := tx.Model(&models.BudgetEntry{}).Where("period_id = ?", period.ID).Count(&existing).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return 0, apperrors.WithMessage(apperrors.ErrAlreadyPopulated,
			fmt.Sprintf("period already holds %d budget entries", existing))
	}

	var categories []models.Category
	if err := tx.Where("is_active = ?", true).Find(&categories).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(categories) == 0 {
		return 0, nil
	}
	active := make(map[string]bool, len(categories))
	ids := make([]string, 0, len(categories))
	for _, c := range categories {
		active[c.ID] = true
		ids = append(ids, c.ID)
	}

	var items []models.Item
	if err := tx.Where("category_id IN ?", ids).Find(&items).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := budgettree.Snapshot(items, active, period.ID)
	if len(entries) == 0 {
		return 0, nil
	}
	if err := tx.CreateInBatches(entries, 200).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperrors.ErrAlreadyPopulated
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return len(entries), nil
}

// GetPeriodByID retrieves a period by ID
func (s *periodService) GetPeriodByID(id string) (*models.Period, error) {
	return findPeriod(s.db, id)
}

// ListPeriods returns periods, newest first.
func (s *periodService) ListPeriods(filter PeriodFilter) ([]models.Period, error) {
	query := s.db.Model(&models.Period{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}

	periods := []models.Period{}
	if err := query.Order("start_date DESC, created_at DESC").Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return periods, nil
}

// Activate moves a DRAFT period to ACTIVE.
func (s *periodService) Activate(id string) (*models.Period, error) {
	return s.transition(id, models.PeriodStatusDraft, models.PeriodStatusActive, "activated_at")
}

// Close moves an ACTIVE period to CLOSED. Its transactions become immutable.
func (s *periodService) Close(id string) (*models.Period, error) {
	return s.transition(id, models.PeriodStatusActive, models.PeriodStatusClosed, "closed_at")
}

// transition is a compare-and-set on status: only a row still in `from`
// is updated, so concurrent callers cannot both win.
func (s *periodService) transition(id string, from, to models.PeriodStatus, stampColumn string) (*models.Period, error) {
	res := s.db.Model(&models.Period{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":    to,
			stampColumn: time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	period, err := findPeriod(s.db, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrPeriodTransition,
			fmt.Sprintf("cannot move period from %s to %s", period.Status, to))
	}
	return period, nil
}

// HasOtherActivePeriod reports whether any period other than id is ACTIVE.
func (s *periodService) HasOtherActivePeriod(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Period{}).
		Where("status = ? AND id <> ?", models.PeriodStatusActive, id).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// ListBudgetEntries returns the period's entries in tree order with their
// rolled-up target and actual totals.
func (s *periodService) ListBudgetEntries(periodID string, categoryID *string) ([]EntryRollup, error) {
	return s.aggregation.RollupTree(periodID, categoryID)
}

func findPeriod(db *gorm.DB, id string) (*models.Period, error) {
	var period models.Period
	if err := db.Where("id = ?", id).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}
