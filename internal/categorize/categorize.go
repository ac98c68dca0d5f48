// Package categorize assigns categories to canonical transactions.
//
// The chain is, in order: the statement's own category column, the user's
// merchant rules, the static merchant dictionary, a pseudo-category derived
// from the description, and finally Uncategorized.
package categorize

import (
	"sort"
	"strings"

	"spendlens/internal/merchant"
	"spendlens/internal/models"
)

// Uncategorized is the label of last resort.
const Uncategorized = "Uncategorized"

// heuristicTokens is how many significant words form a pseudo-category.
const heuristicTokens = 2

// Result is the outcome of categorizing one transaction.
type Result struct {
	Category string
	Source   models.CategorySource
}

// RuleSet holds a user's merchant rules ordered for matching: longest
// keyword first, equal lengths in lexicographic order.
type RuleSet struct {
	rules []models.MerchantRule
}

// NewRuleSet normalizes and orders rules. Rules with an empty keyword are dropped.
func NewRuleSet(rules []models.MerchantRule) RuleSet {
	ordered := make([]models.MerchantRule, 0, len(rules))
	for _, r := range rules {
		r.Keyword = NormalizePattern(r.Keyword)
		if r.Keyword == "" || strings.TrimSpace(r.Category) == "" {
			continue
		}
		ordered = append(ordered, r)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i].Keyword) != len(ordered[j].Keyword) {
			return len(ordered[i].Keyword) > len(ordered[j].Keyword)
		}
		return ordered[i].Keyword < ordered[j].Keyword
	})
	return RuleSet{rules: ordered}
}

// Match returns the rule whose keyword the description contains, if any.
func (s RuleSet) Match(description string) (models.MerchantRule, bool) {
	lower := strings.ToLower(description)
	for _, r := range s.rules {
		if strings.Contains(lower, r.Keyword) {
			return r, true
		}
	}
	return models.MerchantRule{}, false
}

// Len returns the number of usable rules.
func (s RuleSet) Len() int { return len(s.rules) }

// Categorize runs the fallback chain for tx. It does not modify tx.
//
// A category that came from the statement itself or from the user is kept
// as is; everything else is recomputed, so repeated runs with the same rules
// and dictionary give the same answer.
func Categorize(tx *models.Transaction, rules RuleSet, dict *Dictionary) Result {
	if tx.Category != "" && (tx.CategorySource == models.CategorySourceStatement || tx.CategorySource == models.CategorySourceUser) {
		return Result{Category: tx.Category, Source: tx.CategorySource}
	}

	if r, ok := rules.Match(tx.Description); ok {
		return Result{Category: r.Category, Source: models.CategorySourceRule}
	}

	if category, ok := dict.Lookup(tx.Description); ok {
		return Result{Category: category, Source: models.CategorySourceDictionary}
	}

	if name := merchant.DisplayName(tx.Description, heuristicTokens); name != "" {
		return Result{Category: name, Source: models.CategorySourceHeuristic}
	}

	return Result{Category: Uncategorized, Source: models.CategorySourceFallback}
}

// Apply categorizes tx in place.
func Apply(tx *models.Transaction, rules RuleSet, dict *Dictionary) {
	res := Categorize(tx, rules, dict)
	tx.Category = res.Category
	tx.CategorySource = res.Source
}

// ApplyAll categorizes every transaction in txs in place.
func ApplyAll(txs []models.Transaction, rules RuleSet, dict *Dictionary) {
	for i := range txs {
		Apply(&txs[i], rules, dict)
	}
}

// NormalizePattern is the canonical form of a correction pattern or rule keyword.
func NormalizePattern(pattern string) string {
	return strings.ToLower(strings.TrimSpace(pattern))
}

// MatchesPattern reports whether description contains pattern, ignoring case.
// An empty pattern matches nothing.
func MatchesPattern(description, pattern string) bool {
	p := NormalizePattern(pattern)
	if p == "" {
		return false
	}
	return strings.Contains(strings.ToLower(description), p)
}

// CorrectionCandidates returns the transactions a bulk correction of pattern
// to category would change: matching descriptions whose category differs.
// Preview and execution both use this filter.
func CorrectionCandidates(txs []models.Transaction, pattern, category string) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, tx := range txs {
		if tx.Category != category && MatchesPattern(tx.Description, pattern) {
			out = append(out, tx)
		}
	}
	return out
}
