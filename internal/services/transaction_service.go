package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/pagination"
)

// transactionService handles the transaction ledger.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// PostTransaction records an actual movement against an item the period
// has adopted. The period row is share-locked for the duration of the write
// so a concurrent close cannot slip in between the check and the insert.
func (s *transactionService) PostTransaction(input PostTransactionInput) (*models.Transaction, error) {
	if !input.Kind.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "kind must be RECEIPT or EXPENDITURE")
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		PeriodID: input.PeriodID,
		ItemID:   input.ItemID,
		Date:     models.DateOnly(input.Date),
		Amount:   input.Amount,
		Kind:     input.Kind,
		Note:     strings.TrimSpace(input.Note),
		PostedBy: input.Actor,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		period, err := lockOpenPeriod(tx, input.PeriodID)
		if err != nil {
			return err
		}
		if !period.Contains(input.Date) {
			return dateOutOfPeriod(period)
		}

		entry, err := findAdoptedEntry(tx, period.ID, input.ItemID)
		if err != nil {
			return err
		}
		category, err := findCategory(tx, entry.CategoryID)
		if err != nil {
			return err
		}
		if !input.Kind.Matches(category.Kind) {
			return apperrors.WithMessage(apperrors.ErrKindMismatch,
				fmt.Sprintf("item %s belongs to a %s category, got a %s transaction", entry.Code, category.Kind, input.Kind))
		}

		if err := tx.Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateTransaction edits date, amount or note while the period is open.
func (s *transactionService) UpdateTransaction(id string, input UpdateTransactionInput) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = findTransaction(tx, id)
		if err != nil {
			return err
		}
		if txn.IsVoided() {
			return apperrors.ErrTransactionVoided
		}
		period, err := lockOpenPeriod(tx, txn.PeriodID)
		if err != nil {
			return err
		}

		if input.Date != nil {
			if !period.Contains(*input.Date) {
				return dateOutOfPeriod(period)
			}
			txn.Date = models.DateOnly(*input.Date)
		}
		if input.Amount != nil {
			if err := validateAmount(*input.Amount); err != nil {
				return err
			}
			txn.Amount = *input.Amount
		}
		if input.Note != nil {
			txn.Note = strings.TrimSpace(*input.Note)
		}

		if err := tx.Save(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// VoidTransaction soft-removes a transaction from the ledger.
func (s *transactionService) VoidTransaction(id, actor string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = findTransaction(tx, id)
		if err != nil {
			return err
		}
		if txn.IsVoided() {
			return apperrors.ErrTransactionVoided
		}
		if _, err := lockOpenPeriod(tx, txn.PeriodID); err != nil {
			return err
		}

		now := time.Now().UTC()
		txn.VoidedAt = &now
		txn.VoidedBy = actor
		if err := tx.Save(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransactionByID retrieves a transaction by ID
func (s *transactionService) GetTransactionByID(id string) (*models.Transaction, error) {
	return findTransaction(s.db, id)
}

// ListTransactions returns a page of transactions, newest first.
func (s *transactionService) ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{})
	if filter.PeriodID != nil {
		base = base.Where("period_id = ?", *filter.PeriodID)
	}
	if filter.ItemID != nil {
		base = base.Where("item_id = ?", *filter.ItemID)
	}
	if !filter.IncludeVoided {
		base = base.Where("voided_at IS NULL")
	}

	var totalItems int64
	if err := base.Session(&gorm.Session{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Session(&gorm.Session{}).
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// SumByItem returns the non-voided total posted to exactly this item,
// descendants excluded.
func (s *transactionService) SumByItem(periodID, itemID string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := s.db.Model(&models.Transaction{}).
		Where("period_id = ? AND item_id = ? AND voided_at IS NULL", periodID, itemID).
		Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return models.SumMoney(amounts), nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if !models.FitsMoneyScale(amount) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount,
			fmt.Sprintf("amount must have at most %d decimal places", models.MoneyScale))
	}
	return nil
}

// lockOpenPeriod loads the period under a share lock and refuses closed ones.
func lockOpenPeriod(tx *gorm.DB, periodID string) (*models.Period, error) {
	var period models.Period
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", periodID).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if period.Status == models.PeriodStatusClosed {
		return nil, apperrors.WithMessage(apperrors.ErrPeriodClosed,
			fmt.Sprintf("period %q is closed; its transactions are immutable", period.Name))
	}
	return &period, nil
}

// findAdoptedEntry returns the item's budget entry in the period. An item the
// period never adopted is reported as not found.
func findAdoptedEntry(tx *gorm.DB, periodID, itemID string) (*models.BudgetEntry, error) {
	var entry models.BudgetEntry
	err := tx.Where("period_id = ? AND item_id = ?", periodID, itemID).First(&entry).Error
	if err == nil {
		return &entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := findItem(tx, itemID); err != nil {
		return nil, err
	}
	return nil, apperrors.ErrItemNotInPeriod
}

func dateOutOfPeriod(period *models.Period) error {
	return apperrors.WithMessage(apperrors.ErrDateOutOfPeriod,
		fmt.Sprintf("date must fall between %s and %s",
			period.StartDate.Format("2006-01-02"), period.EndDate.Format("2006-01-02")))
}

func findTransaction(db *gorm.DB, id string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := db.Where("id = ?", id).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}
