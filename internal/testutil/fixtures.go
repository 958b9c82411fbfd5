package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"anggaran/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

// CreateTestCategory creates an active category of the given kind with a unique code.
func CreateTestCategory(t *testing.T, db *gorm.DB, kind models.CategoryKind) *models.Category {
	t.Helper()

	n := nextID()
	category := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", n),
		Code:     fmt.Sprintf("C%d", n),
		Kind:     kind,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestItem creates an active item under parent (nil for a root),
// appended after its existing siblings.
func CreateTestItem(t *testing.T, db *gorm.DB, category *models.Category, parent *models.Item, code string) *models.Item {
	t.Helper()

	item := &models.Item{
		CategoryID: category.ID,
		Code:       code,
		Name:       fmt.Sprintf("Item %s", code),
		Level:      1,
		IsActive:   true,
	}
	if parent != nil {
		item.ParentID = &parent.ID
		item.Level = parent.Level + 1
	}
	item.ParentKey = models.ParentKeyFor(category.ID, item.ParentID)

	var siblings int64
	if err := db.Model(&models.Item{}).Where("parent_key = ?", item.ParentKey).Count(&siblings).Error; err != nil {
		t.Fatalf("failed to count siblings: %v", err)
	}
	item.Order = int(siblings) + 1

	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}

// CreateTestLeafItem creates an item carrying frequency × unit amount targets.
func CreateTestLeafItem(t *testing.T, db *gorm.DB, category *models.Category, parent *models.Item, code string, frequency int, unitAmount string) *models.Item {
	t.Helper()

	item := CreateTestItem(t, db, category, parent, code)
	unit := Dec(t, unitAmount)
	item.TargetFrequency = &frequency
	item.UnitAmount = &unit
	item.TotalTarget = models.ComputeTotalTarget(&frequency, &unit)
	if err := db.Save(item).Error; err != nil {
		t.Fatalf("failed to set item targets: %v", err)
	}
	return item
}

// CreateTestPeriod creates a calendar-year 2025 period in the given status.
func CreateTestPeriod(t *testing.T, db *gorm.DB, status models.PeriodStatus) *models.Period {
	t.Helper()

	period := &models.Period{
		Name:      fmt.Sprintf("Period %d", nextID()),
		Year:      2025,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:    status,
		IsActive:  true,
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestBudgetEntry adopts item into period with its current figures.
func CreateTestBudgetEntry(t *testing.T, db *gorm.DB, period *models.Period, item *models.Item) *models.BudgetEntry {
	t.Helper()

	entry := &models.BudgetEntry{
		PeriodID:        period.ID,
		ItemID:          item.ID,
		ParentItemID:    item.ParentID,
		CategoryID:      item.CategoryID,
		Code:            item.Code,
		Name:            item.Name,
		Level:           item.Level,
		Order:           item.Order,
		TargetFrequency: item.TargetFrequency,
		UnitLabel:       item.UnitLabel,
		UnitAmount:      item.UnitAmount,
		TotalTarget:     item.TotalTarget,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test budget entry: %v", err)
	}
	return entry
}

// CreateTestTransaction posts amount against item on the period's first day.
func CreateTestTransaction(t *testing.T, db *gorm.DB, period *models.Period, item *models.Item, kind models.TransactionKind, amount string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		PeriodID: period.ID,
		ItemID:   item.ID,
		Date:     period.StartDate,
		Amount:   Dec(t, amount),
		Kind:     kind,
		PostedBy: "tester",
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
