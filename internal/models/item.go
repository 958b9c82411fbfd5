package models

import "github.com/shopspring/decimal"

// RootParentKey is the parent_key prefix used for level-1 items, so that
// roots are ordered per category while children are ordered per parent.
const RootParentKey = "root:"

// Item is a node of a category's budget tree. Nodes reference their parent by
// id only; tree views are rebuilt from the flat table.
type Item struct {
	Base
	CategoryID      string           `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_items_category_code,priority:1" json:"categoryId"`
	ParentID        *string          `gorm:"type:varchar(36);index" json:"parentId"`
	ParentKey       string           `gorm:"type:varchar(60);not null;uniqueIndex:idx_items_parent_order,priority:1" json:"-"`
	Code            string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_items_category_code,priority:2" json:"code"`
	Name            string           `gorm:"type:varchar(255);not null" json:"name"`
	Level           int              `gorm:"not null" json:"level"`
	Order           int              `gorm:"column:sort_order;not null;uniqueIndex:idx_items_parent_order,priority:2" json:"order"`
	TargetFrequency *int             `json:"targetFrequency"`
	UnitLabel       *string          `gorm:"type:varchar(50)" json:"unitLabel"`
	UnitAmount      *decimal.Decimal `gorm:"type:decimal(18,2)" json:"unitAmount"`
	TotalTarget     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"totalTarget"`
	IsActive        bool             `gorm:"not null;default:true" json:"isActive"`
}

// ParentKeyFor returns the sibling-group key of an item with the given parent.
func ParentKeyFor(categoryID string, parentID *string) string {
	if parentID == nil {
		return RootParentKey + categoryID
	}
	return *parentID
}

// ComputeTotalTarget returns frequency × unit amount when both inputs are
// present, and nil otherwise.
func ComputeTotalTarget(frequency *int, unitAmount *decimal.Decimal) *decimal.Decimal {
	if frequency == nil || unitAmount == nil {
		return nil
	}
	total := unitAmount.Mul(decimal.NewFromInt(int64(*frequency)))
	return &total
}
