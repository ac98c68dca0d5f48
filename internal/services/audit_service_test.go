package services

import (
	"testing"

	"spendlens/internal/models"
	"spendlens/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	t.Run("records_changes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		scope := testutil.NewScope()

		NewAuditService(db).Log(scope, AuditActionDeleteUpload, AuditResourceUpload, "u-1", "127.0.0.1", map[string]any{"transactions_deleted": 3})

		var entry models.AuditLog
		if err := db.Where("user_scope = ?", scope).First(&entry).Error; err != nil {
			t.Fatalf("expected audit entry: %v", err)
		}
		if entry.Action != AuditActionDeleteUpload || entry.ResourceID != "u-1" || entry.Changes != `{"transactions_deleted":3}` {
			t.Errorf("unexpected entry %+v", entry)
		}
	})

	t.Run("write_failure_does_not_panic", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAuditService(db)
		testutil.TeardownTestDB(t, db)

		svc.Log(testutil.NewScope(), AuditActionBulkCorrection, AuditResourceTransaction, "", "", nil)
	})
}
