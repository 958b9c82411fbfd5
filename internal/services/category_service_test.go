package services

import (
	"testing"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		cat, err := svc.CreateCategory("EXPENDITURES", "B", models.CategoryKindExpenditure)
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected category ID to be set")
		}
		if cat.Code != "B" {
			t.Errorf("expected code B, got %s", cat.Code)
		}
		if !cat.IsActive {
			t.Error("expected new category to be active")
		}
	})

	t.Run("duplicate_code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("RECEIPTS", "A", models.CategoryKindReceipt)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory("Other receipts", "A", models.CategoryKindReceipt)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY_CODE")
		testutil.AssertErrorKind(t, err, apperrors.KindConflict)
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("  ", "A", models.CategoryKindReceipt)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("Gifts", "G", models.CategoryKind("GIFT"))
		testutil.AssertErrorKind(t, err, apperrors.KindValidation)
	})
}

func TestListCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)

	_, err := svc.CreateCategory("EXPENDITURES", "B", models.CategoryKindExpenditure)
	testutil.AssertNoError(t, err)
	receipts, err := svc.CreateCategory("RECEIPTS", "A", models.CategoryKindReceipt)
	testutil.AssertNoError(t, err)
	_, err = svc.DeactivateCategory(receipts.ID)
	testutil.AssertNoError(t, err)

	t.Run("all_ordered_by_code", func(t *testing.T) {
		list, err := svc.ListCategories(false)
		testutil.AssertNoError(t, err)
		if len(list) != 2 {
			t.Fatalf("expected 2 categories, got %d", len(list))
		}
		if list[0].Code != "A" || list[1].Code != "B" {
			t.Errorf("expected order A, B; got %s, %s", list[0].Code, list[1].Code)
		}
	})

	t.Run("active_only", func(t *testing.T) {
		list, err := svc.ListCategories(true)
		testutil.AssertNoError(t, err)
		if len(list) != 1 || list[0].Code != "B" {
			t.Errorf("expected only B, got %+v", list)
		}
	})
}

func TestGetCategoryByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)

	_, err := svc.GetCategoryByID("missing")
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestUpdateCategory(t *testing.T) {
	t.Run("rename_with_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
		testutil.CreateTestItem(t, db, cat, nil, "A")

		name := "Belanja"
		updated, err := svc.UpdateCategory(cat.ID, &name, nil, nil)
		testutil.AssertNoError(t, err)
		if updated.Name != "Belanja" {
			t.Errorf("expected name Belanja, got %s", updated.Name)
		}
	})

	t.Run("code_change_blocked_by_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
		testutil.CreateTestItem(t, db, cat, nil, "A")

		code := "NEW"
		_, err := svc.UpdateCategory(cat.ID, nil, &code, nil)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
		testutil.AssertErrorKind(t, err, apperrors.KindPrecondition)
	})

	t.Run("kind_change_blocked_by_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
		testutil.CreateTestItem(t, db, cat, nil, "A")

		kind := models.CategoryKindReceipt
		_, err := svc.UpdateCategory(cat.ID, nil, nil, &kind)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})

	t.Run("code_change_without_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)

		code := "NEW"
		updated, err := svc.UpdateCategory(cat.ID, nil, &code, nil)
		testutil.AssertNoError(t, err)
		if updated.Code != "NEW" {
			t.Errorf("expected code NEW, got %s", updated.Code)
		}
	})

	t.Run("code_collision", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		first := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
		second := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)

		_, err := svc.UpdateCategory(second.ID, nil, &first.Code, nil)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY_CODE")
	})
}

func TestDeactivateCategory(t *testing.T) {
	t.Run("blocked_by_active_item", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
		testutil.CreateTestItem(t, db, cat, nil, "A")

		_, err := svc.DeactivateCategory(cat.ID)
		testutil.AssertErrorKind(t, err, apperrors.KindPrecondition)
	})

	t.Run("allowed_when_items_inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindExpenditure)
		item := testutil.CreateTestItem(t, db, cat, nil, "A")
		db.Model(item).Update("is_active", false)

		updated, err := svc.DeactivateCategory(cat.ID)
		testutil.AssertNoError(t, err)
		if updated.IsActive {
			t.Error("expected category to be inactive")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.DeactivateCategory("missing")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("blocked_by_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindReceipt)
		testutil.CreateTestItem(t, db, cat, nil, "A")

		err := svc.DeleteCategory(cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_HAS_ITEMS")
		testutil.AssertErrorKind(t, err, apperrors.KindReferentialIntegrity)
	})

	t.Run("unused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryKindReceipt)

		testutil.AssertNoError(t, svc.DeleteCategory(cat.ID))
		_, err := svc.GetCategoryByID(cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}
