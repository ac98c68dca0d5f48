// Package insights derives spending aggregates and alerts from canonical
// transactions. Every function is pure and returns an empty result for
// empty input.
package insights

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"spendlens/internal/merchant"
	"spendlens/internal/models"
)

// Defaults for Config.
const (
	DefaultAnomalyMultiplier = 1.3
	DefaultTrailingPeriods   = 3
	DefaultSavingsDiscount   = 0.10
	DefaultTopN              = 5
)

// DefaultDiscretionaryCategories are matched case-insensitively by substring.
var DefaultDiscretionaryCategories = []string{"dining", "shopping", "entertainment", "events"}

// Config holds the insight thresholds.
type Config struct {
	AnomalyMultiplier       float64
	TrailingPeriods         int
	SavingsDiscount         float64
	DiscretionaryCategories []string
	TopN                    int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		AnomalyMultiplier:       DefaultAnomalyMultiplier,
		TrailingPeriods:         DefaultTrailingPeriods,
		SavingsDiscount:         DefaultSavingsDiscount,
		DiscretionaryCategories: DefaultDiscretionaryCategories,
		TopN:                    DefaultTopN,
	}
}

func (c Config) withDefaults() Config {
	if c.AnomalyMultiplier <= 0 {
		c.AnomalyMultiplier = DefaultAnomalyMultiplier
	}
	if c.TrailingPeriods <= 0 {
		c.TrailingPeriods = DefaultTrailingPeriods
	}
	if c.SavingsDiscount < 0 || c.SavingsDiscount >= 1 {
		c.SavingsDiscount = DefaultSavingsDiscount
	}
	if c.DiscretionaryCategories == nil {
		c.DiscretionaryCategories = DefaultDiscretionaryCategories
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	return c
}

// IsDiscretionary reports whether category matches one of the configured
// discretionary names.
func (c Config) IsDiscretionary(category string) bool {
	lower := strings.ToLower(category)
	for _, d := range c.DiscretionaryCategories {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" && strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// MerchantTotal is the expense total of one merchant.
type MerchantTotal struct {
	MerchantKey  string          `json:"merchant_key"`
	MerchantName string          `json:"merchant_name"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Count        int             `json:"count"`
}

// Summary totals one period.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int             `json:"count"`
}

// CategoryChange compares one category across two periods.
type CategoryChange struct {
	Category      string          `json:"category"`
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	ChangePercent float64         `json:"change_percent"`
	ChangeDefined bool            `json:"change_defined"`
}

// Comparison is a period against the one immediately before it.
type Comparison struct {
	Period         Period           `json:"period"`
	PreviousPeriod Period           `json:"previous_period"`
	Current        Summary          `json:"current"`
	Previous       Summary          `json:"previous"`
	ChangePercent  float64          `json:"change_percent"`
	ChangeDefined  bool             `json:"change_defined"`
	Categories     []CategoryChange `json:"categories"`
}

// Alert flags a category whose spend jumped above its trailing average.
type Alert struct {
	Category        string          `json:"category"`
	Current         decimal.Decimal `json:"current"`
	TrailingAverage decimal.Decimal `json:"trailing_average"`
	Ratio           float64         `json:"ratio"`
}

// inPeriod reports whether tx is counted for period. A nil period counts
// everything, dated or not; a real period excludes undated rows.
func inPeriod(tx *models.Transaction, period *Period) bool {
	if period == nil {
		return true
	}
	return tx.Date.Valid && period.Contains(tx.Date.Date)
}

func categoryOf(tx *models.Transaction) string {
	if tx.Category == "" {
		return "Uncategorized"
	}
	return tx.Category
}

// CategoryTotals sums expense magnitudes per category, largest first.
func CategoryTotals(txs []models.Transaction, period *Period) []CategoryTotal {
	idx := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for i := range txs {
		tx := &txs[i]
		if !tx.IsExpense() || !inPeriod(tx, period) {
			continue
		}
		c := categoryOf(tx)
		j, ok := idx[c]
		if !ok {
			j = len(out)
			idx[c] = j
			out = append(out, CategoryTotal{Category: c, Amount: decimal.Zero})
		}
		out[j].Amount = out[j].Amount.Add(tx.Amount)
		out[j].Count++
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MerchantTotals returns the top n merchants by expense magnitude. Dated and
// undated rows both count. n <= 0 returns every merchant.
func MerchantTotals(txs []models.Transaction, n int) []MerchantTotal {
	idx := make(map[string]int)
	out := make([]MerchantTotal, 0)
	for i := range txs {
		tx := &txs[i]
		if !tx.IsExpense() {
			continue
		}
		key := merchant.Key(tx.Description)
		if key == "" {
			continue
		}
		j, ok := idx[key]
		if !ok {
			j = len(out)
			idx[key] = j
			name := tx.MerchantName
			if name == "" {
				name = merchant.DisplayName(tx.Description, 2)
			}
			out = append(out, MerchantTotal{MerchantKey: key, MerchantName: name, Category: categoryOf(tx), Amount: decimal.Zero})
		}
		out[j].Amount = out[j].Amount.Add(tx.Amount)
		out[j].Count++
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].MerchantKey < out[j].MerchantKey
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Summarize totals income and expense for period (nil means all rows).
func Summarize(txs []models.Transaction, period *Period) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
	for i := range txs {
		tx := &txs[i]
		if !inPeriod(tx, period) {
			continue
		}
		if tx.IsExpense() {
			s.Expense = s.Expense.Add(tx.Amount)
		} else {
			s.Income = s.Income.Add(tx.Amount)
		}
		s.Count++
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// ChangePercent returns (current-previous)/previous*100 rounded to two
// places. defined is false, and the percent 0, when previous is zero.
func ChangePercent(current, previous decimal.Decimal) (percent float64, defined bool) {
	if previous.IsZero() {
		return 0, false
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64(), true
}

// Compare contrasts period with the equal-length period before it: total
// expense change plus the top categories of the current period.
func Compare(txs []models.Transaction, period Period, cfg Config) Comparison {
	cfg = cfg.withDefaults()
	prev := period.Previous()

	cmp := Comparison{
		Period:         period,
		PreviousPeriod: prev,
		Current:        Summarize(txs, &period),
		Previous:       Summarize(txs, &prev),
		Categories:     make([]CategoryChange, 0),
	}
	cmp.ChangePercent, cmp.ChangeDefined = ChangePercent(cmp.Current.Expense, cmp.Previous.Expense)

	previousByCategory := make(map[string]decimal.Decimal)
	for _, c := range CategoryTotals(txs, &prev) {
		previousByCategory[c.Category] = c.Amount
	}
	current := CategoryTotals(txs, &period)
	if len(current) > cfg.TopN {
		current = current[:cfg.TopN]
	}
	for _, c := range current {
		p := previousByCategory[c.Category]
		change := CategoryChange{Category: c.Category, Current: c.Amount, Previous: p}
		change.ChangePercent, change.ChangeDefined = ChangePercent(c.Amount, p)
		cmp.Categories = append(cmp.Categories, change)
	}
	return cmp
}

// Alerts flags categories whose spend in period exceeds AnomalyMultiplier
// times their average over the TrailingPeriods preceding periods. Categories
// without trailing spend are never flagged.
func Alerts(txs []models.Transaction, period Period, cfg Config) []Alert {
	cfg = cfg.withDefaults()

	trailing := make(map[string]decimal.Decimal)
	p := period
	for i := 0; i < cfg.TrailingPeriods; i++ {
		p = p.Previous()
		for _, c := range CategoryTotals(txs, &p) {
			trailing[c.Category] = trailing[c.Category].Add(c.Amount)
		}
	}

	divisor := decimal.NewFromInt(int64(cfg.TrailingPeriods))
	multiplier := decimal.NewFromFloat(cfg.AnomalyMultiplier)
	out := make([]Alert, 0)
	for _, c := range CategoryTotals(txs, &period) {
		sum, ok := trailing[c.Category]
		if !ok || !sum.IsPositive() {
			continue
		}
		// Compare and divide on the exact average; only the reported value is rounded.
		avg := sum.Div(divisor)
		if !avg.IsPositive() || !c.Amount.GreaterThan(avg.Mul(multiplier)) {
			continue
		}
		out = append(out, Alert{
			Category:        c.Category,
			Current:         c.Amount,
			TrailingAverage: avg.Round(2),
			Ratio:           c.Amount.Div(avg).Round(2).InexactFloat64(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ratio != out[j].Ratio {
			return out[i].Ratio > out[j].Ratio
		}
		return out[i].Category < out[j].Category
	})
	return out
}
