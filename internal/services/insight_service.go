package services

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"spendlens/internal/cashflow"
	"spendlens/internal/insights"
	"spendlens/internal/models"
	"spendlens/internal/recurring"
)

// InsightSettings carries the thresholds used by the derived views.
type InsightSettings struct {
	Insights  insights.Config
	Recurring recurring.Options
	Cashflow  cashflow.Options
}

// DefaultInsightSettings returns the standard thresholds.
func DefaultInsightSettings() InsightSettings {
	return InsightSettings{
		Insights:  insights.DefaultConfig(),
		Recurring: recurring.DefaultOptions(),
		Cashflow:  cashflow.DefaultOptions(),
	}
}

// insightService computes derived views from a user's stored transactions.
// Nothing it returns is persisted; every call recomputes from the store.
type insightService struct {
	transactions TransactionServicer
	budgets      BudgetServicer
	settings     InsightSettings
	today        func() civil.Date
}

// NewInsightService creates a new InsightServicer.
func NewInsightService(transactions TransactionServicer, budgets BudgetServicer, settings InsightSettings) InsightServicer {
	return newInsightService(transactions, budgets, settings, func() civil.Date {
		return civil.DateOf(time.Now().UTC())
	})
}

func newInsightService(transactions TransactionServicer, budgets BudgetServicer, settings InsightSettings, today func() civil.Date) *insightService {
	return &insightService{
		transactions: transactions,
		budgets:      budgets,
		settings:     settings,
		today:        today,
	}
}

// Overview summarizes period and compares it with the one before. A nil
// period means the calendar month of the latest dated transaction.
func (s *insightService) Overview(userScope string, period *insights.Period) (*Overview, error) {
	txs, err := s.transactions.FetchTransactions(userScope, TransactionFilter{})
	if err != nil {
		return nil, err
	}

	var p insights.Period
	if period != nil {
		p = *period
	} else {
		p = insights.MonthPeriod(latestDate(txs, s.today()))
	}

	cfg := s.settings.Insights
	topN := cfg.TopN
	if topN <= 0 {
		topN = insights.DefaultTopN
	}

	totals := insights.CategoryTotals(txs, &p)
	top := totals
	if len(top) > topN {
		top = top[:topN]
	}

	budgets, err := s.budgets.ListBudgets(userScope)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Period:        p,
		Summary:       insights.Summarize(txs, &p),
		Comparison:    insights.Compare(txs, p, cfg),
		TopCategories: top,
		Alerts:        insights.Alerts(txs, p, cfg),
		Budgets:       budgetStatuses(budgets, totals),
	}, nil
}

// latestDate returns the most recent transaction date, or fallback when no
// transaction is dated.
func latestDate(txs []models.Transaction, fallback civil.Date) civil.Date {
	var latest civil.Date
	for i := range txs {
		if txs[i].Date.Valid && (latest == (civil.Date{}) || txs[i].Date.Date.After(latest)) {
			latest = txs[i].Date.Date
		}
	}
	if latest == (civil.Date{}) {
		return fallback
	}
	return latest
}

// budgetStatuses matches budgets to category totals by case-insensitive name.
func budgetStatuses(budgets []models.Budget, totals []insights.CategoryTotal) []BudgetStatus {
	spent := make(map[string]decimal.Decimal, len(totals))
	for _, t := range totals {
		key := strings.ToLower(t.Category)
		spent[key] = spent[key].Add(t.Amount)
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		used := spent[strings.ToLower(b.Category)]
		status := BudgetStatus{
			Category:  b.Category,
			Budgeted:  b.Amount,
			Spent:     used,
			Remaining: b.Amount.Sub(used),
		}
		if b.Amount.IsPositive() {
			status.Percentage = used.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
		out = append(out, status)
	}
	return out
}

// Subscriptions lists recurring expenses. MonthlyTotal excludes lapsed ones.
func (s *insightService) Subscriptions(userScope string) (*SubscriptionReport, error) {
	txs, err := s.transactions.FetchTransactions(userScope, TransactionFilter{})
	if err != nil {
		return nil, err
	}

	opts := s.settings.Recurring
	opts.IncludeIncome = false
	opts.Today = s.today()
	patterns := recurring.Detect(txs, opts)

	total := decimal.Zero
	for _, p := range patterns {
		if p.Status != recurring.StatusLapsed {
			total = total.Add(p.MonthlyEquivalent())
		}
	}
	return &SubscriptionReport{Patterns: patterns, MonthlyTotal: total.Round(2)}, nil
}

// Cashflow projects the balance from today using recurring income and expenses.
func (s *insightService) Cashflow(userScope string, startingBalance decimal.Decimal) (*CashflowReport, error) {
	txs, err := s.transactions.FetchTransactions(userScope, TransactionFilter{})
	if err != nil {
		return nil, err
	}

	opts := s.settings.Cashflow
	opts.Today = s.today()
	points := cashflow.Project(txs, startingBalance, opts)

	report := &CashflowReport{StartingBalance: startingBalance, Points: points}
	if low, ok := cashflow.Lowest(points); ok {
		report.Lowest = &low
	}
	return report, nil
}

// BudgetSuggestions proposes monthly budgets from spending history.
func (s *insightService) BudgetSuggestions(userScope string) ([]insights.BudgetSuggestion, error) {
	txs, err := s.transactions.FetchTransactions(userScope, TransactionFilter{})
	if err != nil {
		return nil, err
	}
	return insights.BudgetSuggestions(txs, s.settings.Insights), nil
}

// Merchants returns the top merchants by spend.
func (s *insightService) Merchants(userScope string, limit int) ([]insights.MerchantTotal, error) {
	expense := models.DirectionExpense
	txs, err := s.transactions.FetchTransactions(userScope, TransactionFilter{Direction: &expense})
	if err != nil {
		return nil, err
	}
	return insights.MerchantTotals(txs, limit), nil
}
