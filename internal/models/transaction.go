package models

import "github.com/shopspring/decimal"

// Direction is the income/expense classification of a transaction.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// CategorySource records which step of the categorization chain assigned
// the current category.
type CategorySource string

const (
	CategorySourceStatement  CategorySource = "source"
	CategorySourceRule       CategorySource = "rule"
	CategorySourceDictionary CategorySource = "dictionary"
	CategorySourceHeuristic  CategorySource = "heuristic"
	CategorySourceFallback   CategorySource = "fallback"
	CategorySourceUser       CategorySource = "user"
)

// Transaction is the canonical, direction-resolved record every derived
// computation works on. Only Category and CategorySource change after build.
type Transaction struct {
	Base
	UserScope      string          `gorm:"not null;index:idx_transactions_scope_date,priority:1" json:"-"`
	UploadID       string          `gorm:"type:uuid;not null;index" json:"upload_id"`
	Position       int             `gorm:"not null" json:"position"`
	BankName       string          `gorm:"not null;index" json:"bank_name"`
	Signature      string          `gorm:"size:64;not null;index" json:"signature"`
	Date           NullDate        `gorm:"type:date;index:idx_transactions_scope_date,priority:2" json:"date"`
	Description    string          `gorm:"not null" json:"description"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Direction      Direction       `gorm:"size:16;not null" json:"direction"`
	Category       string          `gorm:"not null" json:"category"`
	CategorySource CategorySource  `gorm:"size:16;not null" json:"category_source"`
	MerchantName   string          `json:"merchant_name,omitempty"`
}

// SignedAmount returns the amount negated for expenses.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsExpense reports whether the transaction is an outflow.
func (t *Transaction) IsExpense() bool {
	return t.Direction == DirectionExpense
}
