package services

import (
	"time"

	"github.com/shopspring/decimal"

	"anggaran/internal/models"
	"anggaran/internal/pagination"
)

// CategoryServicer defines the contract for the category registry.
type CategoryServicer interface {
	CreateCategory(name, code string, kind models.CategoryKind) (*models.Category, error)
	ListCategories(activeOnly bool) ([]models.Category, error)
	GetCategoryByID(id string) (*models.Category, error)
	UpdateCategory(id string, name, code *string, kind *models.CategoryKind) (*models.Category, error)
	DeactivateCategory(id string) (*models.Category, error)
	DeleteCategory(id string) error
}

// CreateItemInput carries the fields of a new budget item. Nil pointers mean
// the field was not supplied.
type CreateItemInput struct {
	CategoryID      string
	ParentID        *string
	Code            string
	Name            string
	Order           *int
	TargetFrequency *int
	UnitLabel       *string
	UnitAmount      *decimal.Decimal
}

// UpdateItemInput carries a partial item update. The Clear flags null the
// matching field and take precedence over a supplied value.
type UpdateItemInput struct {
	Name            *string
	Code            *string
	Order           *int
	TargetFrequency *int
	UnitLabel       *string
	UnitAmount      *decimal.Decimal
	IsActive        *bool

	ClearTargetFrequency bool
	ClearUnitLabel       bool
	ClearUnitAmount      bool
}

// ItemFilter narrows ListItems.
type ItemFilter struct {
	CategoryID *string
	PeriodID   *string
}

// ItemServicer defines the contract for the budget item tree.
type ItemServicer interface {
	CreateItem(input CreateItemInput) (*models.Item, error)
	GetItemByID(id string) (*models.Item, error)
	ListItems(filter ItemFilter) ([]models.Item, error)
	UpdateItem(id string, input UpdateItemInput) (*models.Item, error)
	MoveItem(id string, newParentID *string) (*models.Item, error)
	DeleteItem(id string) error
	GetSubtree(id string) ([]models.Item, error)
}

// CreatePeriodInput carries the fields of a new period.
type CreatePeriodInput struct {
	Name         string
	Year         int
	StartDate    time.Time
	EndDate      time.Time
	AutoPopulate bool
}

// PeriodFilter narrows ListPeriods.
type PeriodFilter struct {
	Status *models.PeriodStatus
	Year   *int
}

// PeriodServicer defines the contract for period lifecycle and snapshots.
type PeriodServicer interface {
	CreatePeriod(input CreatePeriodInput) (*models.Period, error)
	AutoPopulate(periodID string) (int, error)
	GetPeriodByID(id string) (*models.Period, error)
	ListPeriods(filter PeriodFilter) ([]models.Period, error)
	Activate(id string) (*models.Period, error)
	Close(id string) (*models.Period, error)
	HasOtherActivePeriod(id string) (bool, error)
	ListBudgetEntries(periodID string, categoryID *string) ([]EntryRollup, error)
}

// PostTransactionInput carries a new ledger posting.
type PostTransactionInput struct {
	PeriodID string
	ItemID   string
	Date     time.Time
	Amount   decimal.Decimal
	Kind     models.TransactionKind
	Note     string
	Actor    string
}

// UpdateTransactionInput carries a partial transaction update.
type UpdateTransactionInput struct {
	Date   *time.Time
	Amount *decimal.Decimal
	Note   *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	PeriodID      *string
	ItemID        *string
	IncludeVoided bool
}

// TransactionServicer defines the contract for the transaction ledger.
type TransactionServicer interface {
	PostTransaction(input PostTransactionInput) (*models.Transaction, error)
	UpdateTransaction(id string, input UpdateTransactionInput) (*models.Transaction, error)
	VoidTransaction(id, actor string) (*models.Transaction, error)
	GetTransactionByID(id string) (*models.Transaction, error)
	ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	SumByItem(periodID, itemID string) (decimal.Decimal, error)
}

// EntryRollup is a budget entry annotated with its subtree totals.
type EntryRollup struct {
	models.BudgetEntry
	TargetTotal decimal.Decimal `json:"targetTotal"`
	ActualTotal decimal.Decimal `json:"actualTotal"`
}

// AggregationServicer defines the read-side rollup contract.
type AggregationServicer interface {
	RollupTarget(periodID, itemID string) (decimal.Decimal, error)
	RollupActual(periodID, itemID string) (decimal.Decimal, error)
	RollupSubtree(periodID, itemID string) ([]EntryRollup, error)
	RollupTree(periodID string, categoryID *string) ([]EntryRollup, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actor, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
