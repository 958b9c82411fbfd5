package models

import "github.com/shopspring/decimal"

// BudgetEntry is a period-scoped copy of an item, frozen when the period is
// populated. Tree position is copied too, so template moves do not change
// how historical periods roll up.
type BudgetEntry struct {
	Base
	PeriodID        string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_budget_entries_period_item,priority:1" json:"periodId"`
	ItemID          string           `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_budget_entries_period_item,priority:2" json:"itemId"`
	ParentItemID    *string          `gorm:"type:varchar(36)" json:"parentItemId"`
	CategoryID      string           `gorm:"type:varchar(36);not null;index" json:"categoryId"`
	Code            string           `gorm:"type:varchar(50);not null" json:"code"`
	Name            string           `gorm:"type:varchar(255);not null" json:"name"`
	Level           int              `gorm:"not null" json:"level"`
	Order           int              `gorm:"column:sort_order;not null" json:"order"`
	TargetFrequency *int             `json:"targetFrequency"`
	UnitLabel       *string          `gorm:"type:varchar(50)" json:"unitLabel"`
	UnitAmount      *decimal.Decimal `gorm:"type:decimal(18,2)" json:"unitAmount"`
	TotalTarget     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"totalTarget"`
}
