package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/testutil"
)

func TestRollupTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAggregationService(db)
	cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
	root := testutil.CreateTestItem(t, db, cat, nil, "A")
	mid := testutil.CreateTestLeafItem(t, db, cat, root, "A.1", 1, "100")
	leafA := testutil.CreateTestLeafItem(t, db, cat, mid, "A.1.1", 12, "10")
	leafB := testutil.CreateTestLeafItem(t, db, cat, mid, "A.1.2", 3, "5")
	period := testutil.CreateTestPeriod(t, db, models.PeriodStatusActive)
	for _, it := range []*models.Item{root, mid, leafA, leafB} {
		testutil.CreateTestBudgetEntry(t, db, period, it)
	}

	t.Run("node_total_plus_children", func(t *testing.T) {
		// A.1 owns 100 directly, children add 120 + 15.
		got, err := svc.RollupTarget(period.ID, mid.ID)
		testutil.AssertNoError(t, err)
		if !got.Equal(decimal.NewFromInt(235)) {
			t.Errorf("expected 235, got %s", got)
		}
	})

	t.Run("node_without_target_contributes_zero", func(t *testing.T) {
		got, err := svc.RollupTarget(period.ID, root.ID)
		testutil.AssertNoError(t, err)
		if !got.Equal(decimal.NewFromInt(235)) {
			t.Errorf("expected 235, got %s", got)
		}
	})

	t.Run("leaf", func(t *testing.T) {
		got, err := svc.RollupTarget(period.ID, leafB.ID)
		testutil.AssertNoError(t, err)
		if !got.Equal(decimal.NewFromInt(15)) {
			t.Errorf("expected 15, got %s", got)
		}
	})

	t.Run("every_node_sums_its_children", func(t *testing.T) {
		nodes, err := svc.RollupTree(period.ID, nil)
		testutil.AssertNoError(t, err)
		byItem := make(map[string]EntryRollup)
		for _, n := range nodes {
			byItem[n.ItemID] = n
		}
		for _, n := range nodes {
			want := decimal.Zero
			if n.TotalTarget != nil {
				want = *n.TotalTarget
			}
			for _, other := range nodes {
				if other.ParentItemID != nil && *other.ParentItemID == n.ItemID {
					want = want.Add(byItem[other.ItemID].TargetTotal)
				}
			}
			if !n.TargetTotal.Equal(want) {
				t.Errorf("%s: expected %s, got %s", n.Code, want, n.TargetTotal)
			}
		}
	})

	t.Run("item_not_in_period", func(t *testing.T) {
		outsider := testutil.CreateTestItem(t, db, cat, nil, "B")
		_, err := svc.RollupTarget(period.ID, outsider.ID)
		testutil.AssertAppError(t, err, "ITEM_NOT_IN_PERIOD")
	})

	t.Run("unknown_ids", func(t *testing.T) {
		_, err := svc.RollupTarget("missing", root.ID)
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")
		_, err = svc.RollupTarget(period.ID, "missing")
		testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
	})
}

func TestRollupActual(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAggregationService(db)
	ledger := NewTransactionService(db)
	cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
	root := testutil.CreateTestItem(t, db, cat, nil, "A")
	child := testutil.CreateTestItem(t, db, cat, root, "A.1")
	sibling := testutil.CreateTestItem(t, db, cat, nil, "B")
	period := testutil.CreateTestPeriod(t, db, models.PeriodStatusActive)
	other := testutil.CreateTestPeriod(t, db, models.PeriodStatusActive)
	for _, it := range []*models.Item{root, child, sibling} {
		testutil.CreateTestBudgetEntry(t, db, period, it)
	}
	testutil.CreateTestTransaction(t, db, period, root, models.TransactionKindExpenditure, "3")
	testutil.CreateTestTransaction(t, db, period, child, models.TransactionKindExpenditure, "4")
	testutil.CreateTestTransaction(t, db, period, sibling, models.TransactionKindExpenditure, "100")
	testutil.CreateTestTransaction(t, db, other, child, models.TransactionKindExpenditure, "1000")
	voided := testutil.CreateTestTransaction(t, db, period, child, models.TransactionKindExpenditure, "50")
	_, err := ledger.VoidTransaction(voided.ID, "admin")
	testutil.AssertNoError(t, err)

	got, err := svc.RollupActual(period.ID, root.ID)
	testutil.AssertNoError(t, err)
	if !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected 7, got %s", got)
	}

	direct, err := ledger.SumByItem(period.ID, root.ID)
	testutil.AssertNoError(t, err)
	childTotal, err := svc.RollupActual(period.ID, child.ID)
	testutil.AssertNoError(t, err)
	if !got.Equal(direct.Add(childTotal)) {
		t.Errorf("rollup %s != direct %s + children %s", got, direct, childTotal)
	}
}

func TestRollupActualIsExact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAggregationService(db)
	ledger := NewTransactionService(db)
	cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
	root := testutil.CreateTestItem(t, db, cat, nil, "A")
	child := testutil.CreateTestItem(t, db, cat, root, "A.1")
	period := testutil.CreateTestPeriod(t, db, models.PeriodStatusActive)
	testutil.CreateTestBudgetEntry(t, db, period, root)
	testutil.CreateTestBudgetEntry(t, db, period, child)

	for _, posting := range []struct {
		item   *models.Item
		amount string
	}{{child, "0.10"}, {child, "0.20"}, {root, "0.10"}} {
		_, err := ledger.PostTransaction(PostTransactionInput{
			PeriodID: period.ID,
			ItemID:   posting.item.ID,
			Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Amount:   testutil.Dec(t, posting.amount),
			Kind:     models.TransactionKindExpenditure,
			Actor:    "admin",
		})
		testutil.AssertNoError(t, err)
	}

	got, err := svc.RollupActual(period.ID, child.ID)
	testutil.AssertNoError(t, err)
	if got.String() != "0.3" {
		t.Errorf("expected A.1 = 0.3, got %s", got)
	}
	got, err = svc.RollupActual(period.ID, root.ID)
	testutil.AssertNoError(t, err)
	if got.String() != "0.4" {
		t.Errorf("expected A = 0.4, got %s", got)
	}

	nodes, err := svc.RollupTree(period.ID, nil)
	testutil.AssertNoError(t, err)
	if len(nodes) != 2 || nodes[0].ActualTotal.String() != "0.4" || nodes[1].ActualTotal.String() != "0.3" {
		t.Errorf("unexpected tree totals %+v", nodes)
	}
}

func TestRollupSubtreeReadsOnlyTheSubtree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAggregationService(db)
	cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
	a := testutil.CreateTestItem(t, db, cat, nil, "A")
	a1 := testutil.CreateTestLeafItem(t, db, cat, a, "A.1", 2, "10")
	a11 := testutil.CreateTestLeafItem(t, db, cat, a1, "A.1.1", 1, "3")
	b := testutil.CreateTestLeafItem(t, db, cat, nil, "B", 1, "1000")
	period := testutil.CreateTestPeriod(t, db, models.PeriodStatusActive)
	for _, it := range []*models.Item{a, a1, a11, b} {
		testutil.CreateTestBudgetEntry(t, db, period, it)
	}
	testutil.CreateTestTransaction(t, db, period, b, models.TransactionKindExpenditure, "500")

	nodes, err := svc.RollupSubtree(period.ID, a.ID)
	testutil.AssertNoError(t, err)
	if len(nodes) != 3 || nodes[0].ItemID != a.ID || nodes[1].ItemID != a1.ID || nodes[2].ItemID != a11.ID {
		t.Fatalf("expected [A, A.1, A.1.1], got %+v", nodes)
	}
	if !nodes[0].TargetTotal.Equal(decimal.NewFromInt(23)) || !nodes[0].ActualTotal.IsZero() {
		t.Errorf("unexpected A totals target=%s actual=%s", nodes[0].TargetTotal, nodes[0].ActualTotal)
	}
	if !nodes[1].TargetTotal.Equal(decimal.NewFromInt(23)) {
		t.Errorf("expected A.1 target 23, got %s", nodes[1].TargetTotal)
	}
}

func TestRollupUsesSnapshotPosition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAggregationService(db)
	items := NewItemService(db, DefaultMaxItemDepth)
	cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
	a := testutil.CreateTestItem(t, db, cat, nil, "A")
	b := testutil.CreateTestItem(t, db, cat, nil, "B")
	leaf := testutil.CreateTestLeafItem(t, db, cat, a, "A.1", 2, "10")
	period := testutil.CreateTestPeriod(t, db, models.PeriodStatusDraft)
	for _, it := range []*models.Item{a, b, leaf} {
		testutil.CreateTestBudgetEntry(t, db, period, it)
	}

	_, err := items.MoveItem(leaf.ID, &b.ID)
	testutil.AssertNoError(t, err)

	got, err := svc.RollupTarget(period.ID, a.ID)
	testutil.AssertNoError(t, err)
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected the frozen tree to keep A.1 under A, got %s", got)
	}
}

func TestRollupTreeByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAggregationService(db)
	expenditures := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
	receipts := testutil.CreateTestCategory(t, db, models.CategoryKindReceipt)
	a := testutil.CreateTestItem(t, db, expenditures, nil, "A")
	a1 := testutil.CreateTestLeafItem(t, db, expenditures, a, "A.1", 1, "5")
	r := testutil.CreateTestLeafItem(t, db, receipts, nil, "R", 1, "9")
	period := testutil.CreateTestPeriod(t, db, models.PeriodStatusActive)
	for _, it := range []*models.Item{a, a1, r} {
		testutil.CreateTestBudgetEntry(t, db, period, it)
	}

	nodes, err := svc.RollupTree(period.ID, &expenditures.ID)
	testutil.AssertNoError(t, err)
	if len(nodes) != 2 || nodes[0].ItemID != a.ID || nodes[1].ItemID != a1.ID {
		t.Fatalf("expected [A, A.1] in tree order, got %+v", nodes)
	}
	if !nodes[0].TargetTotal.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected A target 5, got %s", nodes[0].TargetTotal)
	}
}

// TestBudgetScenario walks a full cycle: template, snapshot, postings,
// rollup and closing.
func TestBudgetScenario(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	categories := NewCategoryService(db)
	items := NewItemService(db, DefaultMaxItemDepth)
	aggregation := NewAggregationService(db)
	periods := NewPeriodService(db, aggregation)
	ledger := NewTransactionService(db)

	cat, err := categories.CreateCategory("EXPENDITURES", "B", models.CategoryKindExpenditure)
	testutil.AssertNoError(t, err)

	a, err := items.CreateItem(CreateItemInput{CategoryID: cat.ID, Code: "A", Name: "BAGIAN BELANJA RUTIN"})
	testutil.AssertNoError(t, err)
	a1, err := items.CreateItem(CreateItemInput{CategoryID: cat.ID, ParentID: &a.ID, Code: "A.1", Name: "POS PELAYAN"})
	testutil.AssertNoError(t, err)
	unit := decimal.NewFromInt(20550000)
	a11, err := items.CreateItem(CreateItemInput{
		CategoryID:      cat.ID,
		ParentID:        &a1.ID,
		Code:            "A.1.1",
		Name:            "Honorarium",
		TargetFrequency: intPtr(12),
		UnitAmount:      &unit,
	})
	testutil.AssertNoError(t, err)
	if a.Level != 1 || a1.Level != 2 || a11.Level != 3 {
		t.Fatalf("unexpected levels %d/%d/%d", a.Level, a1.Level, a11.Level)
	}
	if !a11.TotalTarget.Equal(decimal.NewFromInt(246600000)) {
		t.Fatalf("expected 246600000, got %s", a11.TotalTarget)
	}

	period, err := periods.CreatePeriod(CreatePeriodInput{
		Name:         "2025",
		Year:         2025,
		StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		AutoPopulate: true,
	})
	testutil.AssertNoError(t, err)
	_, err = periods.Activate(period.ID)
	testutil.AssertNoError(t, err)

	posting := PostTransactionInput{
		PeriodID: period.ID,
		ItemID:   a11.ID,
		Date:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.NewFromInt(1000000),
		Kind:     models.TransactionKindReceipt,
		Actor:    "admin",
	}
	_, err = ledger.PostTransaction(posting)
	testutil.AssertErrorKind(t, err, apperrors.KindValidation)

	posting.Kind = models.TransactionKindExpenditure
	_, err = ledger.PostTransaction(posting)
	testutil.AssertNoError(t, err)

	actual, err := aggregation.RollupActual(period.ID, a.ID)
	testutil.AssertNoError(t, err)
	if !actual.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("expected rollupActual(A) = 1000000, got %s", actual)
	}
	target, err := aggregation.RollupTarget(period.ID, a.ID)
	testutil.AssertNoError(t, err)
	if !target.Equal(decimal.NewFromInt(246600000)) {
		t.Errorf("expected rollupTarget(A) = 246600000, got %s", target)
	}

	entries, err := periods.ListBudgetEntries(period.ID, nil)
	testutil.AssertNoError(t, err)
	if len(entries) != 3 || !entries[0].ActualTotal.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("unexpected budget entries: %+v", entries)
	}

	_, err = periods.AutoPopulate(period.ID)
	testutil.AssertErrorKind(t, err, apperrors.KindConflict)

	_, err = periods.Close(period.ID)
	testutil.AssertNoError(t, err)
	_, err = ledger.PostTransaction(posting)
	testutil.AssertErrorKind(t, err, apperrors.KindPrecondition)
}
