package models

import "github.com/shopspring/decimal"

// Budget is a monthly spending limit for one category, one row per
// (user, category).
type Budget struct {
	Base
	UserScope string          `gorm:"not null;uniqueIndex:idx_budgets_scope_category,priority:1" json:"-"`
	Category  string          `gorm:"not null;uniqueIndex:idx_budgets_scope_category,priority:2" json:"category"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
}
