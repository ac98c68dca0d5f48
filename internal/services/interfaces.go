package services

import (
	"io"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"spendlens/internal/cashflow"
	"spendlens/internal/categorize"
	"spendlens/internal/ingest"
	"spendlens/internal/insights"
	"spendlens/internal/models"
	"spendlens/internal/pagination"
	"spendlens/internal/recurring"
	"spendlens/internal/statement"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *civil.Date
	ToDate    *civil.Date
	Direction *models.Direction
	Category  *string
	BankName  *string
	UploadID  *string
	// Search matches the description case-insensitively.
	Search string
}

// TransactionServicer defines the contract for reading and recategorizing
// stored transactions.
type TransactionServicer interface {
	FetchTransactions(userScope string, filter TransactionFilter) ([]models.Transaction, error)
	ListTransactions(userScope string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userScope, transactionID string) (*models.Transaction, error)
	UpdateCategory(userScope, transactionID, category string) (*models.Transaction, error)
	ExistingSignatures(userScope string, signatures []string) (map[string]bool, error)
}

// ImportOptions controls a single import.
type ImportOptions struct {
	FileName       string
	SkipDuplicates bool
}

// ImportResult summarizes an import.
type ImportResult struct {
	Upload     *models.Upload  `json:"upload"`
	Fields     ingest.FieldMap `json:"fields"`
	Imported   int             `json:"imported"`
	Skipped    int             `json:"skipped"`
	Duplicates int             `json:"duplicates"`
	Categories map[string]int  `json:"categories"`
}

// ImportServicer defines the contract for statement ingestion and upload
// management.
type ImportServicer interface {
	ImportRows(userScope, bankName string, rows []ingest.RawRow, opts ImportOptions) (*ImportResult, error)
	ImportStatement(userScope, bankName string, format statement.Format, r io.Reader, opts ImportOptions) (*ImportResult, error)
	SaveTransactions(userScope, bankName, fileName string, txs []models.Transaction) (*models.Upload, error)
	ListUploads(userScope string, page pagination.PageRequest) (*pagination.PageResponse[models.Upload], error)
	DeleteUpload(userScope, uploadID, ipAddress string) error
	DeleteBankTransactions(userScope, bankName, ipAddress string) (int64, error)
}

// RuleServicer defines the contract for user merchant rules.
type RuleServicer interface {
	ListRules(userScope string) ([]models.MerchantRule, error)
	UpsertRule(userScope, keyword, category string) (*models.MerchantRule, error)
	DeleteRule(userScope, ruleID string) error
	RuleSet(userScope string) (categorize.RuleSet, error)
}

// CorrectionMode selects whether a bulk correction is only previewed or applied.
type CorrectionMode string

const (
	CorrectionPreview CorrectionMode = "preview"
	CorrectionExecute CorrectionMode = "execute"
)

// CorrectionResult describes the affected set of a bulk correction.
type CorrectionResult struct {
	Mode         CorrectionMode       `json:"mode"`
	Pattern      string               `json:"pattern"`
	Category     string               `json:"category"`
	Matched      int                  `json:"matched"`
	Updated      int                  `json:"updated"`
	RuleSaved    bool                 `json:"rule_saved"`
	Transactions []models.Transaction `json:"transactions"`
}

// CorrectionServicer defines the contract for bulk category corrections.
type CorrectionServicer interface {
	ApplyBulkCorrection(userScope, pattern, category string, mode CorrectionMode, ipAddress string) (*CorrectionResult, error)
}

// BudgetServicer defines the contract for per-category budgets.
type BudgetServicer interface {
	ListBudgets(userScope string) ([]models.Budget, error)
	UpsertBudget(userScope, category string, amount decimal.Decimal) (*models.Budget, error)
	DeleteBudget(userScope, category string) error
}

// NoteInput is a note with its tags, as written by clients.
type NoteInput struct {
	Signature string   `json:"signature"`
	Note      string   `json:"note"`
	Tags      []string `json:"tags"`
}

// LegacyData is client-local state captured before notes and budgets lived
// in the shared store.
type LegacyData struct {
	Notes   []NoteInput                `json:"notes"`
	Budgets map[string]decimal.Decimal `json:"budgets"`
}

// ReconcileResult counts what a legacy reconciliation imported and kept.
type ReconcileResult struct {
	NotesImported   int `json:"notes_imported"`
	NotesKept       int `json:"notes_kept"`
	BudgetsImported int `json:"budgets_imported"`
	BudgetsKept     int `json:"budgets_kept"`
}

// NoteServicer defines the contract for transaction notes and tags.
type NoteServicer interface {
	ListNotes(userScope string) ([]models.TransactionNote, error)
	UpsertNote(userScope string, input NoteInput) (*models.TransactionNote, error)
	DeleteNote(userScope, signature string) error
	ReconcileLegacy(userScope string, data LegacyData, ipAddress string) (*ReconcileResult, error)
}

// BudgetStatus is a budget with the spend recorded against it in a period.
type BudgetStatus struct {
	Category  string          `json:"category"`
	Budgeted  decimal.Decimal `json:"budgeted"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	// Percentage is zero when the budget amount is zero.
	Percentage float64 `json:"percentage"`
}

// Overview is the dashboard view for one period.
type Overview struct {
	Period        insights.Period          `json:"period"`
	Summary       insights.Summary         `json:"summary"`
	Comparison    insights.Comparison      `json:"comparison"`
	TopCategories []insights.CategoryTotal `json:"top_categories"`
	Alerts        []insights.Alert         `json:"alerts"`
	Budgets       []BudgetStatus           `json:"budgets"`
}

// SubscriptionReport lists recurring charges with their combined monthly cost.
type SubscriptionReport struct {
	Patterns     []recurring.Pattern `json:"patterns"`
	MonthlyTotal decimal.Decimal     `json:"monthly_total"`
}

// CashflowReport is a balance projection with its lowest point.
type CashflowReport struct {
	StartingBalance decimal.Decimal  `json:"starting_balance"`
	Points          []cashflow.Point `json:"points"`
	Lowest          *cashflow.Point  `json:"lowest,omitempty"`
}

// InsightServicer defines the contract for derived views over a user's
// stored transactions.
type InsightServicer interface {
	Overview(userScope string, period *insights.Period) (*Overview, error)
	Subscriptions(userScope string) (*SubscriptionReport, error)
	Cashflow(userScope string, startingBalance decimal.Decimal) (*CashflowReport, error)
	BudgetSuggestions(userScope string) ([]insights.BudgetSuggestion, error)
	Merchants(userScope string, limit int) ([]insights.MerchantTotal, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userScope, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
