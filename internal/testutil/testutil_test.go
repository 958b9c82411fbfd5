package testutil_test

import (
	"testing"

	"anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"categories", "items", "periods", "budget_entries", "transactions", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolation(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestCategory(t, first, models.CategoryKindReceipt)

	var count int64
	second.Model(&models.Category{}).Count(&count)
	if count != 0 {
		t.Errorf("expected databases to be isolated, found %d categories", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	category := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
	if category.ID == "" {
		t.Fatal("category should have an ID")
	}

	root := testutil.CreateTestItem(t, db, category, nil, "A")
	second := testutil.CreateTestItem(t, db, category, nil, "B")
	if root.Order != 1 || second.Order != 2 {
		t.Errorf("expected root orders 1 and 2, got %d and %d", root.Order, second.Order)
	}

	leaf := testutil.CreateTestLeafItem(t, db, category, root, "A.1", 12, "20550000")
	if leaf.Level != 2 {
		t.Errorf("expected level 2, got %d", leaf.Level)
	}
	if !leaf.TotalTarget.Equal(testutil.Dec(t, "246600000")) {
		t.Errorf("expected total target 246600000, got %s", leaf.TotalTarget)
	}

	period := testutil.CreateTestPeriod(t, db, models.PeriodStatusActive)
	entry := testutil.CreateTestBudgetEntry(t, db, period, leaf)
	if entry.ItemID != leaf.ID {
		t.Errorf("expected entry for %s, got %s", leaf.ID, entry.ItemID)
	}

	tx := testutil.CreateTestTransaction(t, db, period, leaf, models.TransactionKindExpenditure, "1000")
	if !tx.Amount.Equal(testutil.Dec(t, "1000")) {
		t.Errorf("expected amount 1000, got %s", tx.Amount)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrItemNotFound, "custom message")
	testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
	testutil.AssertErrorKind(t, err, errors.KindNotFound)
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
