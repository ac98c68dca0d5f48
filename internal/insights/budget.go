package insights

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendlens/internal/models"
)

// BudgetSuggestion is a proposed monthly budget for one category.
type BudgetSuggestion struct {
	Category       string          `json:"category"`
	AverageMonthly decimal.Decimal `json:"average_monthly"`
	Suggested      decimal.Decimal `json:"suggested"`
	Months         int             `json:"months"`
	Discretionary  bool            `json:"discretionary"`
}

// BudgetSuggestions proposes a monthly budget per expense category: the
// average monthly spend from the category's first month to the last month
// present in the data. Discretionary categories are reduced by
// SavingsDiscount. Undated rows are ignored.
func BudgetSuggestions(txs []models.Transaction, cfg Config) []BudgetSuggestion {
	cfg = cfg.withDefaults()

	type acc struct {
		first int
		total decimal.Decimal
	}
	byCategory := make(map[string]*acc)
	last := -1
	for i := range txs {
		tx := &txs[i]
		if !tx.Date.Valid {
			continue
		}
		m := monthIndex(tx.Date.Date)
		if m > last {
			last = m
		}
		if !tx.IsExpense() {
			continue
		}
		c := categoryOf(tx)
		a, ok := byCategory[c]
		if !ok {
			a = &acc{first: m, total: decimal.Zero}
			byCategory[c] = a
		}
		if m < a.first {
			a.first = m
		}
		a.total = a.total.Add(tx.Amount)
	}

	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(cfg.SavingsDiscount))
	out := make([]BudgetSuggestion, 0, len(byCategory))
	for c, a := range byCategory {
		months := last - a.first + 1
		avg := a.total.Div(decimal.NewFromInt(int64(months))).Round(2)
		s := BudgetSuggestion{
			Category:       c,
			AverageMonthly: avg,
			Suggested:      avg,
			Months:         months,
			Discretionary:  cfg.IsDiscretionary(c),
		}
		if s.Discretionary {
			s.Suggested = avg.Mul(keep).Round(2)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Suggested.Equal(out[j].Suggested) {
			return out[i].Suggested.GreaterThan(out[j].Suggested)
		}
		return out[i].Category < out[j].Category
	})
	return out
}
