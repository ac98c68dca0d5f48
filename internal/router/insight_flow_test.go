package router

import (
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func fourMonthRows() []map[string]string {
	var rows []map[string]string
	for m := 1; m <= 4; m++ {
		month := time.Month(m)
		dining := "1000.00"
		if m == 4 {
			dining = "3000.00"
		}
		rows = append(rows,
			hdfcRow(civil.Date{Year: 2024, Month: month, Day: 1}, "SALARY ACME CORP", "", "50000.00"),
			hdfcRow(civil.Date{Year: 2024, Month: month, Day: 5}, "NETFLIX.COM", "649.00", ""),
			hdfcRow(civil.Date{Year: 2024, Month: month, Day: 12}, "SWIGGY ORDER", dining, ""),
		)
	}
	return rows
}

func TestInsightFlow_MonthlyOverview(t *testing.T) {
	app := setupApp(t)
	scope := "insights@test.com"
	token := tokenFor(t, scope)
	app.mustIngest(t, scope, "HDFC", fourMonthRows(), false)

	rec := app.request("PUT", "/api/v1/budgets", `{"category":"food & dining","amount":4000}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 saving budget, got %d: %s", rec.Code, rec.Body.String())
	}

	// The latest data month is used when no period is given.
	rec = app.request("GET", "/api/v1/insights/overview", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	overview := parseJSON(t, rec)
	period := overview["period"].(map[string]interface{})
	if period["start"] != "2024-04-01" || period["end"] != "2024-04-30" {
		t.Fatalf("unexpected default period %v", period)
	}

	summary := overview["summary"].(map[string]interface{})
	if summary["expense"] != "3649" || summary["income"] != "50000" {
		t.Errorf("unexpected summary %v", summary)
	}

	top := overview["top_categories"].([]interface{})
	if len(top) == 0 || top[0].(map[string]interface{})["category"] != "Food & Dining" {
		t.Errorf("unexpected top categories %v", top)
	}

	alerts := overview["alerts"].([]interface{})
	if len(alerts) != 1 || alerts[0].(map[string]interface{})["category"] != "Food & Dining" {
		t.Errorf("expected a dining alert, got %v", alerts)
	}

	budgets := overview["budgets"].([]interface{})
	if len(budgets) != 1 || budgets[0].(map[string]interface{})["percentage"].(float64) != 75 {
		t.Errorf("unexpected budget status %v", budgets)
	}

	// An explicit month replaces the default.
	rec = app.request("GET", "/api/v1/insights/overview?month=2024-02", "", token)
	feb := parseJSON(t, rec)["summary"].(map[string]interface{})
	if feb["expense"] != "1649" {
		t.Errorf("unexpected February expense %v", feb["expense"])
	}

	// Top merchants across all time.
	rec = app.request("GET", "/api/v1/insights/merchants?limit=1", "", token)
	merchants := parseJSON(t, rec)["merchants"].([]interface{})
	if len(merchants) != 1 || merchants[0].(map[string]interface{})["amount"] != "6000" {
		t.Errorf("unexpected merchants %v", merchants)
	}

	// Dining is discretionary, so its suggestion is reduced below the average.
	rec = app.request("GET", "/api/v1/insights/budget-suggestions", "", token)
	for _, s := range parseJSON(t, rec)["suggestions"].([]interface{}) {
		sug := s.(map[string]interface{})
		if sug["category"] == "Food & Dining" && sug["discretionary"] != true {
			t.Errorf("expected dining to be discretionary: %v", sug)
		}
	}
}

func TestInsightFlow_SubscriptionsAndCashflow(t *testing.T) {
	app := setupApp(t)
	scope := "recurring@test.com"
	token := tokenFor(t, scope)

	now := today()
	app.mustIngest(t, scope, "HDFC", []map[string]string{
		hdfcRow(now.AddDays(-75), "NETFLIX.COM", "649.00", ""),
		hdfcRow(now.AddDays(-45), "NETFLIX.COM", "649.00", ""),
		hdfcRow(now.AddDays(-15), "NETFLIX.COM", "649.00", ""),
		hdfcRow(now.AddDays(-20), "ONE OFF FURNITURE", "15000.00", ""),
	}, false)

	rec := app.request("GET", "/api/v1/insights/subscriptions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	report := parseJSON(t, rec)
	patterns := report["patterns"].([]interface{})
	if len(patterns) != 1 {
		t.Fatalf("expected 1 subscription, got %v", patterns)
	}
	p := patterns[0].(map[string]interface{})
	if p["frequency"] != "monthly" || p["status"] != "active" || p["occurrences"].(float64) != 3 {
		t.Errorf("unexpected pattern %v", p)
	}
	if report["monthly_total"] != "649" {
		t.Errorf("unexpected monthly total %v", report["monthly_total"])
	}

	rec = app.request("GET", "/api/v1/insights/cashflow?balance=10000", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cash := parseJSON(t, rec)
	points := cash["points"].([]interface{})
	if points[0].(map[string]interface{})["balance"] != "10000" {
		t.Errorf("day 0 should equal the starting balance, got %v", points[0])
	}
	lowest := cash["lowest"].(map[string]interface{})
	if lowest["balance"] != "9351" {
		t.Errorf("unexpected lowest balance %v", lowest)
	}
}
