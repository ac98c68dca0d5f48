package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spendlens/internal/ingest"
	"spendlens/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewScope returns a unique user scope.
func NewScope() string {
	return fmt.Sprintf("user%d@test.com", nextID())
}

// CreateTestUpload creates an empty upload batch for scope.
func CreateTestUpload(t *testing.T, db *gorm.DB, scope, bankName string) *models.Upload {
	t.Helper()

	upload := &models.Upload{
		UserScope: scope,
		BankName:  bankName,
		FileName:  fmt.Sprintf("statement-%d.csv", nextID()),
	}
	if err := db.Create(upload).Error; err != nil {
		t.Fatalf("failed to create test upload: %v", err)
	}
	return upload
}

// TxSpec describes a fixture transaction.
type TxSpec struct {
	Description string
	Date        civil.Date
	Amount      int64
	Direction   models.Direction
	Category    string
	Source      models.CategorySource
}

// CreateTestTransactions stores one transaction per TxSpec under upload.
func CreateTestTransactions(t *testing.T, db *gorm.DB, upload *models.Upload, specs ...TxSpec) []models.Transaction {
	t.Helper()

	txs := make([]models.Transaction, 0, len(specs))
	for i, s := range specs {
		if s.Direction == "" {
			s.Direction = models.DirectionExpense
		}
		if s.Category == "" {
			s.Category = "Uncategorized"
			s.Source = models.CategorySourceFallback
		}
		if s.Source == "" {
			s.Source = models.CategorySourceDictionary
		}
		tx := models.Transaction{
			UserScope:      upload.UserScope,
			UploadID:       upload.ID,
			Position:       i,
			BankName:       upload.BankName,
			Description:    s.Description,
			Amount:         decimal.NewFromInt(s.Amount),
			Direction:      s.Direction,
			Category:       s.Category,
			CategorySource: s.Source,
		}
		if s.Date != (civil.Date{}) {
			tx.Date = models.NewDate(s.Date)
		}
		tx.Signature = ingest.TransactionSignature(&tx)
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return txs
	}
	if err := db.Create(&txs).Error; err != nil {
		t.Fatalf("failed to create test transactions: %v", err)
	}
	return txs
}

// CreateTestRule creates a merchant rule.
func CreateTestRule(t *testing.T, db *gorm.DB, scope, keyword, category string) *models.MerchantRule {
	t.Helper()

	rule := &models.MerchantRule{UserScope: scope, Keyword: keyword, Category: category}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestBudget creates a budget for category.
func CreateTestBudget(t *testing.T, db *gorm.DB, scope, category string, amount int64) *models.Budget {
	t.Helper()

	budget := &models.Budget{UserScope: scope, Category: category, Amount: decimal.NewFromInt(amount)}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestNote attaches a note to a signature.
func CreateTestNote(t *testing.T, db *gorm.DB, scope, signature, text string) *models.TransactionNote {
	t.Helper()

	note := &models.TransactionNote{UserScope: scope, Signature: signature, Note: text}
	if err := db.Create(note).Error; err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}
	return note
}
