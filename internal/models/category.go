package models

// CategoryKind fixes which transaction kind the items of a category accept.
type CategoryKind string

const (
	CategoryKindReceipt     CategoryKind = "RECEIPT"
	CategoryKindExpenditure CategoryKind = "EXPENDITURE"
)

// Valid reports whether k is a known kind.
func (k CategoryKind) Valid() bool {
	return k == CategoryKindReceipt || k == CategoryKindExpenditure
}

// Category is a top-level partition of the budget tree.
type Category struct {
	Base
	Name     string       `gorm:"type:varchar(150);not null" json:"name"`
	Code     string       `gorm:"type:varchar(20);not null;uniqueIndex:idx_categories_code" json:"code"`
	Kind     CategoryKind `gorm:"type:varchar(20);not null" json:"kind"`
	IsActive bool         `gorm:"not null;default:true" json:"isActive"`
}
