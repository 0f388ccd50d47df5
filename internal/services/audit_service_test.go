package services

import (
	"testing"

	"gastos/internal/models"
	"gastos/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	t.Run("stores_changes_as_json", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		svc.Log(AuditRulesReapply, "rule", 0, "127.0.0.1", map[string]any{"actualizados": 3})

		var entry models.AuditLog
		testutil.AssertNoError(t, db.First(&entry).Error)
		if entry.Action != AuditRulesReapply || entry.IPAddress != "127.0.0.1" {
			t.Errorf("unexpected entry: %+v", entry)
		}
		if entry.Changes != `{"actualizados":3}` {
			t.Errorf("unexpected changes: %s", entry.Changes)
		}
	})

	t.Run("nil_changes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		svc.Log(AuditDeleteTransaction, "transaction", 7, "", nil)

		var entry models.AuditLog
		testutil.AssertNoError(t, db.First(&entry).Error)
		if entry.ResourceID != 7 || entry.Changes != "" {
			t.Errorf("unexpected entry: %+v", entry)
		}
	})
}
