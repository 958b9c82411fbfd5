package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(name, code string, kind models.CategoryKind) (*models.Category, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category code is required")
	}
	if !kind.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category kind must be RECEIPT or EXPENDITURE")
	}

	category := &models.Category{
		Name:     name,
		Code:     code,
		Kind:     kind,
		IsActive: true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.ensureCodeFree(tx, code, ""); err != nil {
			return err
		}
		if err := tx.Create(category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateCategoryCode
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns categories ordered by code.
func (s *categoryService) ListCategories(activeOnly bool) ([]models.Category, error) {
	query := s.db.Model(&models.Category{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := query.Order("code ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(id string) (*models.Category, error) {
	return findCategory(s.db, id)
}

// UpdateCategory renames a category and, while no item references it,
// changes its code or kind.
func (s *categoryService) UpdateCategory(id string, name, code *string, kind *models.CategoryKind) (*models.Category, error) {
	var category *models.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		category, err = findCategory(tx, id)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if name != nil {
			trimmed := strings.TrimSpace(*name)
			if trimmed == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
			}
			updates["name"] = trimmed
		}

		codeChanged := code != nil && strings.TrimSpace(*code) != category.Code
		kindChanged := kind != nil && *kind != category.Kind
		if codeChanged || kindChanged {
			if err := assertNoDependents(tx, apperrors.ErrCategoryInUse,
				dependents("items", &models.Item{}, "category_id = ?", id),
			); err != nil {
				return err
			}
		}
		if codeChanged {
			trimmed := strings.TrimSpace(*code)
			if trimmed == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "category code cannot be empty")
			}
			if err := s.ensureCodeFree(tx, trimmed, id); err != nil {
				return err
			}
			updates["code"] = trimmed
		}
		if kindChanged {
			if !kind.Valid() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "category kind must be RECEIPT or EXPENDITURE")
			}
			updates["kind"] = *kind
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(category).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateCategoryCode
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeactivateCategory hides a category from future snapshots. It is refused
// while any active item still belongs to the category.
func (s *categoryService) DeactivateCategory(id string) (*models.Category, error) {
	var category *models.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		category, err = findCategory(tx, id)
		if err != nil {
			return err
		}
		if err := assertNoDependents(tx, apperrors.ErrCategoryInUse,
			dependents("active items", &models.Item{}, "category_id = ? AND is_active = ?", id, true),
		); err != nil {
			return err
		}
		if err := tx.Model(category).Update("is_active", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category that no item references.
func (s *categoryService) DeleteCategory(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, id)
		if err != nil {
			return err
		}
		if err := assertNoDependents(tx, apperrors.ErrCategoryHasItems,
			dependents("items", &models.Item{}, "category_id = ?", id),
		); err != nil {
			return err
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func (s *categoryService) ensureCodeFree(tx *gorm.DB, code, exceptID string) error {
	query := tx.Model(&models.Category{}).Where("code = ?", code)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategoryCode
	}
	return nil
}

func findCategory(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}
