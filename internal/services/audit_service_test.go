package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"anggaran/internal/models"
	"anggaran/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	t.Run("records_changes_as_json", func(t *testing.T) {
		svc.Log("bendahara", "POST_TRANSACTION", "transaction", "tx-1", "10.0.0.1",
			map[string]interface{}{"amount": decimal.NewFromInt(1000000)})

		var entry models.AuditLog
		testutil.AssertNoError(t, db.Where("resource_id = ?", "tx-1").First(&entry).Error)
		if entry.Actor != "bendahara" || entry.Action != "POST_TRANSACTION" || entry.IPAddress != "10.0.0.1" {
			t.Errorf("unexpected entry %+v", entry)
		}
		if entry.Changes != `{"amount":"1000000"}` {
			t.Errorf("unexpected changes %q", entry.Changes)
		}
	})

	t.Run("nil_changes_store_nothing", func(t *testing.T) {
		svc.Log("bendahara", "CLOSE_PERIOD", "period", "p-1", "", nil)

		var entry models.AuditLog
		testutil.AssertNoError(t, db.Where("resource_id = ?", "p-1").First(&entry).Error)
		if entry.Changes != "" {
			t.Errorf("expected empty changes, got %q", entry.Changes)
		}
	})

	t.Run("unencodable_changes_fall_back", func(t *testing.T) {
		svc.Log("bendahara", "UPDATE_ITEM", "item", "i-1", "", map[string]interface{}{"bad": make(chan int)})

		var entry models.AuditLog
		testutil.AssertNoError(t, db.Where("resource_id = ?", "i-1").First(&entry).Error)
		if entry.Changes != "{}" {
			t.Errorf("expected {}, got %q", entry.Changes)
		}
	})
}
