package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind mirrors the category kind an item belongs to.
type TransactionKind string

const (
	TransactionKindReceipt     TransactionKind = "RECEIPT"
	TransactionKindExpenditure TransactionKind = "EXPENDITURE"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	return k == TransactionKindReceipt || k == TransactionKindExpenditure
}

// Matches reports whether the transaction kind is accepted by a category kind.
func (k TransactionKind) Matches(c CategoryKind) bool {
	return string(k) == string(c)
}

// Transaction is an actual monetary movement posted against one item within one period.
type Transaction struct {
	Base
	PeriodID string          `gorm:"type:varchar(36);not null;index:idx_transactions_period_item,priority:1" json:"periodId"`
	ItemID   string          `gorm:"type:varchar(36);not null;index:idx_transactions_period_item,priority:2;index" json:"itemId"`
	Date     time.Time       `gorm:"not null" json:"date"`
	Amount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Kind     TransactionKind `gorm:"type:varchar(20);not null" json:"kind"`
	Note     string          `gorm:"type:text" json:"note"`
	PostedBy string          `gorm:"type:varchar(100)" json:"postedBy"`
	VoidedAt *time.Time      `gorm:"index" json:"voidedAt,omitempty"`
	VoidedBy string          `gorm:"type:varchar(100)" json:"voidedBy,omitempty"`
}

// IsVoided reports whether the transaction was voided.
func (t *Transaction) IsVoided() bool {
	return t.VoidedAt != nil
}
