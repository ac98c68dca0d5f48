package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"spendlens/internal/logger"
	"spendlens/internal/models"
	"spendlens/internal/testutil"
)

func seedCorrections(t *testing.T, db *gorm.DB, scope string) {
	t.Helper()
	upload := testutil.CreateTestUpload(t, db, scope, "HDFC")
	testutil.CreateTestTransactions(t, db, upload,
		testutil.TxSpec{Description: "UPI-CHAI POINT-KORAMANGALA", Date: day(2024, time.April, 1), Amount: 80, Category: "CHAI POINT", Source: models.CategorySourceHeuristic},
		testutil.TxSpec{Description: "chai point hsr", Date: day(2024, time.April, 2), Amount: 95, Category: "CHAI POINT", Source: models.CategorySourceHeuristic},
		testutil.TxSpec{Description: "CHAI POINT AIRPORT", Date: day(2024, time.April, 3), Amount: 150, Category: "Food & Dining"},
		testutil.TxSpec{Description: "BLUE TOKAI", Date: day(2024, time.April, 4), Amount: 300, Category: "BLUE TOKAI", Source: models.CategorySourceHeuristic},
	)
}

func TestApplyBulkCorrection(t *testing.T) {
	t.Run("preview_equals_execute", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		scope := testutil.NewScope()
		seedCorrections(t, db, scope)
		audit := &recordingAudit{}
		rules := NewRuleService(db)
		svc := NewCorrectionService(db, rules, audit, 2)

		preview, err := svc.ApplyBulkCorrection(scope, "Chai Point", "Food & Dining", CorrectionPreview, "")
		testutil.AssertNoError(t, err)
		if preview.Matched != 2 || preview.Updated != 0 {
			t.Fatalf("expected 2 previewed and none updated, got %+v", preview)
		}

		var untouched int64
		db.Model(&models.Transaction{}).Where("user_scope = ? AND category = ?", scope, "CHAI POINT").Count(&untouched)
		if untouched != 2 {
			t.Errorf("preview must not write, %d rows still uncorrected", untouched)
		}

		executed, err := svc.ApplyBulkCorrection(scope, "Chai Point", "Food & Dining", CorrectionExecute, "127.0.0.1")
		testutil.AssertNoError(t, err)
		if executed.Matched != 2 || executed.Updated != 2 || !executed.RuleSaved {
			t.Errorf("unexpected execute result %+v", executed)
		}

		previewIDs := map[string]bool{}
		for _, tx := range preview.Transactions {
			previewIDs[tx.ID] = true
		}
		for _, tx := range executed.Transactions {
			if !previewIDs[tx.ID] {
				t.Errorf("executed transaction %s was not previewed", tx.ID)
			}
			if tx.Category != "Food & Dining" || tx.CategorySource != models.CategorySourceUser {
				t.Errorf("expected returned rows to carry the new category, got %+v", tx)
			}
		}

		after, err := svc.ApplyBulkCorrection(scope, "chai point", "Food & Dining", CorrectionPreview, "")
		testutil.AssertNoError(t, err)
		if after.Matched != 0 {
			t.Errorf("expected empty preview after execute, got %d", after.Matched)
		}

		saved, err := rules.ListRules(scope)
		testutil.AssertNoError(t, err)
		if len(saved) != 1 || saved[0].Keyword != "chai point" || saved[0].Category != "Food & Dining" {
			t.Errorf("expected saved rule, got %+v", saved)
		}
		if len(audit.actions) != 1 || audit.actions[0] != AuditActionBulkCorrection {
			t.Errorf("expected one correction audit, got %v", audit.actions)
		}
	})

	t.Run("rule_failure_is_not_fatal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		scope := testutil.NewScope()
		seedCorrections(t, db, scope)
		svc := NewCorrectionService(db, failingRules{err: errors.New("rules table locked")}, &recordingAudit{}, 0)
		core, logs := observer.New(zap.ErrorLevel)
		restore := logger.Replace(zap.New(core))
		defer restore()

		result, err := svc.ApplyBulkCorrection(scope, "chai point", "Food & Dining", CorrectionExecute, "")
		testutil.AssertNoError(t, err)
		if result.RuleSaved || result.Updated != 2 {
			t.Errorf("expected update without rule, got %+v", result)
		}
		if logs.FilterMessage("failed to save merchant rule after bulk correction").Len() != 1 {
			t.Errorf("expected the rule failure to be logged, got %v", logs.All())
		}

		var corrected int64
		db.Model(&models.Transaction{}).Where("user_scope = ? AND category = ?", scope, "Food & Dining").Count(&corrected)
		if corrected != 3 {
			t.Errorf("expected update to stand after rule failure, got %d corrected", corrected)
		}
	})

	t.Run("other_users_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		mine, other := testutil.NewScope(), testutil.NewScope()
		seedCorrections(t, db, mine)
		seedCorrections(t, db, other)
		svc := NewCorrectionService(db, NewRuleService(db), &recordingAudit{}, 0)

		_, err := svc.ApplyBulkCorrection(mine, "chai point", "Coffee", CorrectionExecute, "")
		testutil.AssertNoError(t, err)

		var changed int64
		db.Model(&models.Transaction{}).Where("user_scope = ? AND category = ?", other, "Coffee").Count(&changed)
		if changed != 0 {
			t.Errorf("expected other user's rows untouched, got %d", changed)
		}
	})

	t.Run("concurrent_executions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		scope := testutil.NewScope()
		seedCorrections(t, db, scope)
		svc := NewCorrectionService(db, NewRuleService(db), &recordingAudit{}, 0)

		var wg sync.WaitGroup
		results := make([]*CorrectionResult, 4)
		errs := make([]error, 4)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = svc.ApplyBulkCorrection(scope, "chai point", "Coffee", CorrectionExecute, "")
			}(i)
		}
		wg.Wait()

		total := 0
		for i := range results {
			testutil.AssertNoError(t, errs[i])
			total += results[i].Updated
		}
		if total != 3 {
			t.Errorf("expected the 3 matching rows updated exactly once overall, got %d", total)
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCorrectionService(db, NewRuleService(db), &recordingAudit{}, 0)
		scope := testutil.NewScope()

		_, err := svc.ApplyBulkCorrection(scope, "  ", "Coffee", CorrectionPreview, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.ApplyBulkCorrection(scope, "chai", "", CorrectionPreview, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.ApplyBulkCorrection(scope, "chai", "Coffee", CorrectionMode("apply"), "")
		testutil.AssertAppError(t, err, "INVALID_CORRECTION_MODE")
	})
}
