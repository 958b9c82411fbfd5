package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"anggaran/internal/budgettree"
	apperrors "anggaran/internal/errors"
	"anggaran/internal/logger"
	"anggaran/internal/models"
)

// DefaultMaxItemDepth bounds the item tree when no limit is configured.
const DefaultMaxItemDepth = 6

// orderAttempts bounds how often a write is replayed after losing a race
// on the (parent_key, sort_order) index.
const orderAttempts = 3

// itemService handles the budget item tree.
type itemService struct {
	db       *gorm.DB
	maxDepth int
}

// NewItemService creates a new ItemServicer. Items may nest at most maxDepth levels.
func NewItemService(db *gorm.DB, maxDepth int) ItemServicer {
	if maxDepth < 1 {
		maxDepth = DefaultMaxItemDepth
	}
	return &itemService{db: db, maxDepth: maxDepth}
}

// CreateItem inserts a node into a category's tree. Without an explicit
// order the item is appended after its last sibling; an explicit order
// pushes the siblings at and after it down by one.
func (s *itemService) CreateItem(input CreateItemInput) (*models.Item, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item code is required")
	}
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item name is required")
	}
	if err := validateTargets(input.TargetFrequency, input.UnitAmount); err != nil {
		return nil, err
	}
	if input.Order != nil && *input.Order < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOrder, "order must be 1 or greater")
	}

	var item *models.Item
	err := withOrderRetry("create item", func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			item, err = s.insertItem(tx, input, code, name)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) insertItem(tx *gorm.DB, input CreateItemInput, code, name string) (*models.Item, error) {
	category, err := findCategory(tx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperrors.ErrCategoryInactive
	}

	level := 1
	if input.ParentID != nil {
		parent, err := findParent(tx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.CategoryID != category.ID {
			return nil, apperrors.ErrCrossCategory
		}
		level = parent.Level + 1
	}
	if level > s.maxDepth {
		return nil, apperrors.WithMessage(apperrors.ErrItemTooDeep,
			fmt.Sprintf("item would sit at level %d, the limit is %d", level, s.maxDepth))
	}

	if err := ensureItemCodeFree(tx, category.ID, code, ""); err != nil {
		return nil, err
	}

	parentKey := models.ParentKeyFor(category.ID, input.ParentID)
	highest, err := maxSiblingOrder(tx, parentKey)
	if err != nil {
		return nil, err
	}
	order := highest + 1
	if input.Order != nil {
		if *input.Order > highest+1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidOrder,
				fmt.Sprintf("order must be between 1 and %d", highest+1))
		}
		if *input.Order <= highest {
			if err := shiftSiblings(tx, parentKey, *input.Order, 0, 1); err != nil {
				return nil, err
			}
		}
		order = *input.Order
	}

	item := &models.Item{
		CategoryID:      category.ID,
		ParentID:        input.ParentID,
		ParentKey:       parentKey,
		Code:            code,
		Name:            name,
		Level:           level,
		Order:           order,
		TargetFrequency: input.TargetFrequency,
		UnitLabel:       input.UnitLabel,
		UnitAmount:      input.UnitAmount,
		TotalTarget:     models.ComputeTotalTarget(input.TargetFrequency, input.UnitAmount),
		IsActive:        true,
	}
	if err := tx.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// GetItemByID retrieves an item by ID
func (s *itemService) GetItemByID(id string) (*models.Item, error) {
	return findItem(s.db, id)
}

// ListItems returns a flat, tree-ordered item list. With a period filter only
// the items adopted by that period's snapshot are returned.
func (s *itemService) ListItems(filter ItemFilter) ([]models.Item, error) {
	query := s.db.Model(&models.Item{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.PeriodID != nil {
		if _, err := findPeriod(s.db, *filter.PeriodID); err != nil {
			return nil, err
		}
		adopted := s.db.Model(&models.BudgetEntry{}).Select("item_id").Where("period_id = ?", *filter.PeriodID)
		query = query.Where("id IN (?)", adopted)
	}

	items := []models.Item{}
	if err := query.Order("category_id, level, parent_key, sort_order").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// UpdateItem applies a partial update and recomputes the total target.
// Budget entries already materialized for periods are left untouched.
func (s *itemService) UpdateItem(id string, input UpdateItemInput) (*models.Item, error) {
	var item *models.Item
	err := withOrderRetry("update item", func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			item, err = findItem(tx, id)
			if err != nil {
				return err
			}
			if err := applyItemFields(tx, item, input); err != nil {
				return err
			}

			if input.Order != nil && *input.Order != item.Order {
				highest, err := maxSiblingOrder(tx, item.ParentKey)
				if err != nil {
					return err
				}
				if *input.Order < 1 || *input.Order > highest {
					return apperrors.WithMessage(apperrors.ErrInvalidOrder,
						fmt.Sprintf("order must be between 1 and %d", highest))
				}
				if err := parkItem(tx, item.ID); err != nil {
					return err
				}
				if err := reposition(tx, item.ParentKey, item.Order, *input.Order); err != nil {
					return err
				}
				item.Order = *input.Order
			}

			if err := tx.Save(item).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func applyItemFields(tx *gorm.DB, item *models.Item, input UpdateItemInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "item name cannot be empty")
		}
		item.Name = name
	}
	if input.Code != nil {
		code := strings.TrimSpace(*input.Code)
		if code == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "item code cannot be empty")
		}
		if code != item.Code {
			if err := ensureItemCodeFree(tx, item.CategoryID, code, item.ID); err != nil {
				return err
			}
			item.Code = code
		}
	}

	switch {
	case input.ClearTargetFrequency:
		item.TargetFrequency = nil
	case input.TargetFrequency != nil:
		item.TargetFrequency = input.TargetFrequency
	}
	switch {
	case input.ClearUnitLabel:
		item.UnitLabel = nil
	case input.UnitLabel != nil:
		item.UnitLabel = input.UnitLabel
	}
	switch {
	case input.ClearUnitAmount:
		item.UnitAmount = nil
	case input.UnitAmount != nil:
		item.UnitAmount = input.UnitAmount
	}
	if err := validateTargets(item.TargetFrequency, item.UnitAmount); err != nil {
		return err
	}
	item.TotalTarget = models.ComputeTotalTarget(item.TargetFrequency, item.UnitAmount)

	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
	return nil
}

// MoveItem reattaches an item (nil parent for the category root) and
// relevels its whole subtree. The item is appended after its new siblings
// and the old sibling list is closed up.
func (s *itemService) MoveItem(id string, newParentID *string) (*models.Item, error) {
	if newParentID != nil && *newParentID == id {
		return nil, apperrors.ErrItemCycle
	}

	var item *models.Item
	err := withOrderRetry("move item", func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			item, err = findItem(tx, id)
			if err != nil {
				return err
			}
			if sameParent(item.ParentID, newParentID) {
				return nil
			}

			var items []models.Item
			if err := tx.Where("category_id = ?", item.CategoryID).Find(&items).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			tree := budgettree.FromItems(items)

			newLevel := 1
			if newParentID != nil {
				parent, err := findParent(tx, *newParentID)
				if err != nil {
					return err
				}
				if parent.CategoryID != item.CategoryID {
					return apperrors.ErrCrossCategory
				}
				if tree.Contains(item.ID, parent.ID) {
					return apperrors.ErrItemCycle
				}
				newLevel = parent.Level + 1
			}
			if deepest := newLevel + tree.Height(item.ID) - 1; deepest > s.maxDepth {
				return apperrors.WithMessage(apperrors.ErrItemTooDeep,
					fmt.Sprintf("move would place descendants at level %d, the limit is %d", deepest, s.maxDepth))
			}

			oldKey, oldOrder, delta := item.ParentKey, item.Order, newLevel-item.Level
			newKey := models.ParentKeyFor(item.CategoryID, newParentID)
			highest, err := maxSiblingOrder(tx, newKey)
			if err != nil {
				return err
			}

			if err := tx.Model(item).Updates(map[string]interface{}{
				"parent_id":  newParentID,
				"parent_key": newKey,
				"sort_order": highest + 1,
				"level":      newLevel,
			}).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := closeGap(tx, oldKey, oldOrder); err != nil {
				return err
			}

			if delta != 0 {
				var descendants []string
				for _, n := range tree.Subtree(item.ID)[1:] {
					descendants = append(descendants, n.ID)
				}
				if len(descendants) > 0 {
					if err := tx.Model(&models.Item{}).
						Where("id IN ?", descendants).
						UpdateColumn("level", gorm.Expr("level + ?", delta)).Error; err != nil {
						return apperrors.Wrap(apperrors.ErrInternalServer, err)
					}
				}
			}

			item, err = findItem(tx, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem hard-deletes an item with no children, budget entries or
// transactions, then closes the gap in its sibling order.
func (s *itemService) DeleteItem(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		item, err := findItem(tx, id)
		if err != nil {
			return err
		}
		if err := assertNoDependents(tx, apperrors.ErrItemHasDependents,
			dependents("child items", &models.Item{}, "parent_id = ?", id),
			dependents("budget entries", &models.BudgetEntry{}, "item_id = ?", id),
			dependents("transactions", &models.Transaction{}, "item_id = ?", id),
		); err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return closeGap(tx, item.ParentKey, item.Order)
	})
}

// GetSubtree returns the item followed by its descendants, depth-first in
// sibling order.
func (s *itemService) GetSubtree(id string) ([]models.Item, error) {
	item, err := findItem(s.db, id)
	if err != nil {
		return nil, err
	}

	var items []models.Item
	if err := s.db.Where("category_id = ?", item.CategoryID).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	nodes := budgettree.FromItems(items).Subtree(id)
	out := make([]models.Item, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Value)
	}
	return out, nil
}

// withOrderRetry replays fn when it loses a unique-index race on sibling
// order, up to orderAttempts times.
func withOrderRetry(op string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if attempt == orderAttempts {
			return apperrors.Wrap(apperrors.ErrOrderContention, err)
		}
		logger.Get().Debugw("sibling order conflict, retrying", "op", op, "attempt", attempt)
	}
}

func validateTargets(frequency *int, unitAmount *decimal.Decimal) error {
	if frequency != nil && *frequency < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "targetFrequency must be zero or greater")
	}
	if unitAmount != nil && unitAmount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unitAmount must be zero or greater")
	}
	if unitAmount != nil && !models.FitsMoneyScale(*unitAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("unitAmount must have at most %d decimal places", models.MoneyScale))
	}
	return nil
}

func ensureItemCodeFree(tx *gorm.DB, categoryID, code, exceptID string) error {
	query := tx.Model(&models.Item{}).Where("category_id = ? AND code = ?", categoryID, code)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrDuplicateItemCode,
			fmt.Sprintf("item code %q already exists in this category", code))
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func findItem(db *gorm.DB, id string) (*models.Item, error) {
	var item models.Item
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

func findParent(db *gorm.DB, id string) (*models.Item, error) {
	parent, err := findItem(db, id)
	if errors.Is(err, apperrors.ErrItemNotFound) {
		return nil, apperrors.ErrParentNotFound
	}
	return parent, err
}
