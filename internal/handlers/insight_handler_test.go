package handlers

import (
	"net/http"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendlens/internal/cashflow"
	"spendlens/internal/insights"
	"spendlens/internal/recurring"
	"spendlens/internal/services"
)

// --- mock insight service ---

type mockInsightService struct {
	overviewFn          func(scope string, period *insights.Period) (*services.Overview, error)
	subscriptionsFn     func(scope string) (*services.SubscriptionReport, error)
	cashflowFn          func(scope string, balance decimal.Decimal) (*services.CashflowReport, error)
	budgetSuggestionsFn func(scope string) ([]insights.BudgetSuggestion, error)
	merchantsFn         func(scope string, limit int) ([]insights.MerchantTotal, error)
}

func (m *mockInsightService) Overview(scope string, period *insights.Period) (*services.Overview, error) {
	if m.overviewFn != nil {
		return m.overviewFn(scope, period)
	}
	return &services.Overview{}, nil
}

func (m *mockInsightService) Subscriptions(scope string) (*services.SubscriptionReport, error) {
	if m.subscriptionsFn != nil {
		return m.subscriptionsFn(scope)
	}
	return &services.SubscriptionReport{}, nil
}

func (m *mockInsightService) Cashflow(scope string, balance decimal.Decimal) (*services.CashflowReport, error) {
	if m.cashflowFn != nil {
		return m.cashflowFn(scope, balance)
	}
	return &services.CashflowReport{StartingBalance: balance}, nil
}

func (m *mockInsightService) BudgetSuggestions(scope string) ([]insights.BudgetSuggestion, error) {
	if m.budgetSuggestionsFn != nil {
		return m.budgetSuggestionsFn(scope)
	}
	return []insights.BudgetSuggestion{}, nil
}

func (m *mockInsightService) Merchants(scope string, limit int) ([]insights.MerchantTotal, error) {
	if m.merchantsFn != nil {
		return m.merchantsFn(scope, limit)
	}
	return []insights.MerchantTotal{}, nil
}

var _ services.InsightServicer = (*mockInsightService)(nil)

func setupInsightRouter(handler *InsightHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("/insights", injectScope(testScope))
	auth.GET("/overview", handler.GetOverview)
	auth.GET("/subscriptions", handler.GetSubscriptions)
	auth.GET("/cashflow", handler.GetCashflow)
	auth.GET("/budget-suggestions", handler.GetBudgetSuggestions)
	auth.GET("/merchants", handler.GetMerchants)
	return r
}

func TestInsightHandler_GetOverview(t *testing.T) {
	var got *insights.Period
	called := false
	svc := &mockInsightService{
		overviewFn: func(_ string, period *insights.Period) (*services.Overview, error) {
			got, called = period, true
			return &services.Overview{}, nil
		},
	}
	r := setupInsightRouter(NewInsightHandler(svc))

	t.Run("no params leaves the period to the service", func(t *testing.T) {
		got, called = nil, false
		rec := doRequest(r, "GET", "/insights/overview", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called || got != nil {
			t.Errorf("expected nil period, got %v", got)
		}
	})

	t.Run("month selects the calendar month", func(t *testing.T) {
		rec := doRequest(r, "GET", "/insights/overview?month=2024-02", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		want := insights.Period{Start: civil.Date{Year: 2024, Month: 2, Day: 1}, End: civil.Date{Year: 2024, Month: 2, Day: 29}}
		if got == nil || *got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("from and to select a custom range", func(t *testing.T) {
		rec := doRequest(r, "GET", "/insights/overview?from=2024-01-10&to=2024-02-09", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got == nil || got.Start.String() != "2024-01-10" || got.End.String() != "2024-02-09" {
			t.Errorf("unexpected period %v", got)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for _, q := range []string{"month=2024-13", "month=Feb", "from=2024-01-10", "from=2024-02-10&to=2024-01-01"} {
			called = false
			rec := doRequest(r, "GET", "/insights/overview?"+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, rec.Code)
			}
			if called {
				t.Errorf("%s: service should not be called", q)
			}
		}
	})
}

func TestInsightHandler_GetSubscriptions(t *testing.T) {
	svc := &mockInsightService{
		subscriptionsFn: func(_ string) (*services.SubscriptionReport, error) {
			return &services.SubscriptionReport{
				Patterns: []recurring.Pattern{{
					MerchantName: "Netflix",
					Frequency:    recurring.FrequencyMonthly,
					NextDate:     civil.Date{Year: 2024, Month: 5, Day: 5},
					Status:       recurring.StatusActive,
				}},
				MonthlyTotal: decimal.NewFromInt(649),
			}, nil
		},
	}
	r := setupInsightRouter(NewInsightHandler(svc))

	rec := doRequest(r, "GET", "/insights/subscriptions", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["monthly_total"] != "649" {
		t.Errorf("unexpected monthly total %v", result["monthly_total"])
	}
	p := result["patterns"].([]interface{})[0].(map[string]interface{})
	if p["next_date"] != "2024-05-05" || p["frequency"] != "monthly" {
		t.Errorf("unexpected pattern %v", p)
	}
}

func TestInsightHandler_GetCashflow(t *testing.T) {
	var got decimal.Decimal
	svc := &mockInsightService{
		cashflowFn: func(_ string, balance decimal.Decimal) (*services.CashflowReport, error) {
			got = balance
			low := cashflow.Point{Day: 3, Balance: balance.Sub(decimal.NewFromInt(100))}
			return &services.CashflowReport{StartingBalance: balance, Lowest: &low}, nil
		},
	}
	r := setupInsightRouter(NewInsightHandler(svc))

	t.Run("parses the starting balance", func(t *testing.T) {
		rec := doRequest(r, "GET", "/insights/cashflow?balance=2500.75", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !got.Equal(decimal.RequireFromString("2500.75")) {
			t.Errorf("expected 2500.75, got %s", got)
		}
		lowest := parseJSON(t, rec)["lowest"].(map[string]interface{})
		if lowest["balance"] != "2400.75" {
			t.Errorf("unexpected lowest %v", lowest)
		}
	})

	t.Run("defaults to zero", func(t *testing.T) {
		rec := doRequest(r, "GET", "/insights/cashflow", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !got.IsZero() {
			t.Errorf("expected zero, got %s", got)
		}
	})

	t.Run("rejects a non-numeric balance", func(t *testing.T) {
		rec := doRequest(r, "GET", "/insights/cashflow?balance=lots", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestInsightHandler_GetBudgetSuggestions(t *testing.T) {
	svc := &mockInsightService{
		budgetSuggestionsFn: func(_ string) ([]insights.BudgetSuggestion, error) {
			return []insights.BudgetSuggestion{{Category: "Food & Dining", Suggested: decimal.NewFromInt(1350), Discretionary: true}}, nil
		},
	}
	r := setupInsightRouter(NewInsightHandler(svc))

	rec := doRequest(r, "GET", "/insights/budget-suggestions", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	s := parseJSON(t, rec)["suggestions"].([]interface{})
	if len(s) != 1 || s[0].(map[string]interface{})["suggested"] != "1350" {
		t.Errorf("unexpected suggestions %v", s)
	}
}

func TestInsightHandler_GetMerchants(t *testing.T) {
	var gotLimit int
	svc := &mockInsightService{
		merchantsFn: func(_ string, limit int) ([]insights.MerchantTotal, error) {
			gotLimit = limit
			return []insights.MerchantTotal{}, nil
		},
	}
	r := setupInsightRouter(NewInsightHandler(svc))

	t.Run("defaults the limit", func(t *testing.T) {
		rec := doRequest(r, "GET", "/insights/merchants", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotLimit != defaultMerchantLimit {
			t.Errorf("expected %d, got %d", defaultMerchantLimit, gotLimit)
		}
	})

	t.Run("honors an explicit limit", func(t *testing.T) {
		doRequest(r, "GET", "/insights/merchants?limit=3", "")
		if gotLimit != 3 {
			t.Errorf("expected 3, got %d", gotLimit)
		}
	})

	t.Run("rejects a negative limit", func(t *testing.T) {
		rec := doRequest(r, "GET", "/insights/merchants?limit=-1", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
