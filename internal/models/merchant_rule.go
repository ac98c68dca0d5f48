package models

// MerchantRule maps a lowercased description keyword to a category for one
// user. Unique per (user, keyword); the last write wins.
type MerchantRule struct {
	Base
	UserScope string `gorm:"not null;uniqueIndex:idx_merchant_rules_scope_keyword,priority:1" json:"-"`
	Keyword   string `gorm:"not null;uniqueIndex:idx_merchant_rules_scope_keyword,priority:2" json:"keyword"`
	Category  string `gorm:"not null" json:"category"`
}
