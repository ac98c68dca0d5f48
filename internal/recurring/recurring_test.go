package recurring

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"spendlens/internal/models"
)

var base = civil.Date{Year: 2024, Month: time.January, Day: 1}

func charge(desc string, day int, amount int64) models.Transaction {
	return models.Transaction{
		Description: desc,
		Date:        models.NewDate(base.AddDays(day)),
		Amount:      decimal.NewFromInt(amount),
		Direction:   models.DirectionExpense,
		Category:    "Subscriptions",
	}
}

func opts(today civil.Date) Options {
	o := DefaultOptions()
	o.Today = today
	return o
}

func TestDetect(t *testing.T) {
	t.Run("monthly_from_0_30_61", func(t *testing.T) {
		txs := []models.Transaction{
			charge("NETFLIX.COM", 0, 649),
			charge("NETFLIX.COM", 30, 649),
			charge("NETFLIX.COM", 61, 649),
		}
		got := Detect(txs, opts(base.AddDays(70)))
		if len(got) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(got))
		}
		p := got[0]
		if p.Frequency != FrequencyMonthly {
			t.Errorf("expected monthly, got %s", p.Frequency)
		}
		if p.Occurrences != 3 || p.Confidence != 1 {
			t.Errorf("unexpected occurrences/confidence: %d %v", p.Occurrences, p.Confidence)
		}
		last := base.AddDays(61)
		if p.LastDate != last {
			t.Errorf("expected last date %s, got %s", last, p.LastDate)
		}
		if p.NextDate != AddMonths(last, 1) {
			t.Errorf("expected next date one month after last, got %s", p.NextDate)
		}
	})

	t.Run("single_charge_never_recurring", func(t *testing.T) {
		got := Detect([]models.Transaction{charge("GYM", 0, 1500)}, opts(base))
		if len(got) != 0 {
			t.Errorf("expected no patterns, got %+v", got)
		}
	})

	t.Run("same_day_charges_collapse", func(t *testing.T) {
		got := Detect([]models.Transaction{charge("GYM", 0, 1500), charge("GYM", 0, 1500)}, opts(base))
		if len(got) != 0 {
			t.Errorf("expected same-day pair to be one occurrence, got %+v", got)
		}
	})

	t.Run("weekly", func(t *testing.T) {
		txs := []models.Transaction{charge("CLEANER", 0, 500), charge("CLEANER", 7, 500), charge("CLEANER", 14, 500), charge("CLEANER", 21, 500)}
		got := Detect(txs, opts(base.AddDays(22)))
		if len(got) != 1 || got[0].Frequency != FrequencyWeekly {
			t.Fatalf("expected weekly pattern, got %+v", got)
		}
		if got[0].NextDate != base.AddDays(28) {
			t.Errorf("expected next date day 28, got %s", got[0].NextDate)
		}
	})

	t.Run("yearly_with_drift", func(t *testing.T) {
		txs := []models.Transaction{charge("DOMAIN RENEWAL", 0, 999), charge("DOMAIN RENEWAL", 372, 1099)}
		got := Detect(txs, opts(base.AddDays(380)))
		if len(got) != 1 || got[0].Frequency != FrequencyYearly {
			t.Fatalf("expected yearly pattern, got %+v", got)
		}
		if !got[0].Amount.Equal(decimal.NewFromInt(1099)) {
			t.Errorf("expected latest amount 1099, got %s", got[0].Amount)
		}
	})

	t.Run("quarterly", func(t *testing.T) {
		txs := []models.Transaction{charge("WATER BOARD", 0, 1800), charge("WATER BOARD", 91, 1800), charge("WATER BOARD", 182, 1950)}
		got := Detect(txs, opts(base.AddDays(190)))
		if len(got) != 1 || got[0].Frequency != FrequencyQuarterly {
			t.Fatalf("expected quarterly pattern, got %+v", got)
		}
		if got[0].NextDate != AddMonths(base.AddDays(182), 3) {
			t.Errorf("expected next date three months after last, got %s", got[0].NextDate)
		}
	})

	t.Run("daily_and_irregular_excluded", func(t *testing.T) {
		txs := []models.Transaction{
			charge("CANTEEN", 0, 50), charge("CANTEEN", 1, 50), charge("CANTEEN", 2, 50),
			charge("FURNITURE", 0, 9000), charge("FURNITURE", 150, 9000),
		}
		if got := Detect(txs, opts(base)); len(got) != 0 {
			t.Errorf("expected no patterns, got %+v", got)
		}
	})

	t.Run("low_confidence_excluded", func(t *testing.T) {
		// gaps 5, 30, 5, 30: average 17.5 is monthly but only half the gaps agree
		txs := []models.Transaction{
			charge("PHARMACY", 0, 300), charge("PHARMACY", 5, 300), charge("PHARMACY", 35, 300),
			charge("PHARMACY", 40, 300), charge("PHARMACY", 70, 300),
		}
		if got := Detect(txs, opts(base)); len(got) != 0 {
			t.Errorf("expected no patterns, got %+v", got)
		}
	})

	t.Run("income_only_when_requested", func(t *testing.T) {
		salary := func(day int) models.Transaction {
			tx := charge("SALARY ACME CORP", day, 85000)
			tx.Direction = models.DirectionIncome
			return tx
		}
		txs := []models.Transaction{salary(0), salary(31), salary(60)}

		if got := Detect(txs, opts(base)); len(got) != 0 {
			t.Errorf("expected income to be ignored by default, got %d", len(got))
		}
		o := opts(base)
		o.IncludeIncome = true
		got := Detect(txs, o)
		if len(got) != 1 || got[0].Direction != models.DirectionIncome {
			t.Errorf("expected one income pattern, got %+v", got)
		}
	})

	t.Run("undated_ignored", func(t *testing.T) {
		tx := charge("NETFLIX", 0, 649)
		undated := tx
		undated.Date = models.NullDate{}
		if got := Detect([]models.Transaction{tx, undated}, opts(base)); len(got) != 0 {
			t.Errorf("expected no patterns, got %+v", got)
		}
	})

	t.Run("sorted_by_next_date_then_key", func(t *testing.T) {
		txs := []models.Transaction{
			charge("HOTSTAR", 0, 99), charge("HOTSTAR", 7, 99),
			charge("AIRTEL", 0, 399), charge("AIRTEL", 7, 399),
			charge("SPOTIFY", 0, 119), charge("SPOTIFY", 30, 119),
		}
		got := Detect(txs, opts(base))
		if len(got) != 3 {
			t.Fatalf("expected 3 patterns, got %d", len(got))
		}
		if got[0].MerchantKey != "airtel" || got[1].MerchantKey != "hotstar" || got[2].MerchantKey != "spotify" {
			t.Errorf("unexpected order: %s, %s, %s", got[0].MerchantKey, got[1].MerchantKey, got[2].MerchantKey)
		}
	})

	t.Run("empty_input", func(t *testing.T) {
		if got := Detect(nil, DefaultOptions()); got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", got)
		}
	})
}

func TestStatus(t *testing.T) {
	txs := []models.Transaction{charge("NETFLIX", 0, 649), charge("NETFLIX", 31, 649)}
	next := AddMonths(base.AddDays(31), 1)

	tests := []struct {
		name  string
		today civil.Date
		want  Status
	}{
		{"active", next.AddDays(-8), StatusActive},
		{"expiring_window_edge", next.AddDays(-7), StatusExpiring},
		{"expiring_due_today", next, StatusExpiring},
		{"overdue_within_window", next.AddDays(7), StatusExpiring},
		{"lapsed", next.AddDays(8), StatusLapsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(txs, opts(tt.today))
			if len(got) != 1 {
				t.Fatalf("expected 1 pattern, got %d", len(got))
			}
			if got[0].Status != tt.want {
				t.Errorf("status = %s, want %s", got[0].Status, tt.want)
			}
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		in   civil.Date
		n    int
		want civil.Date
	}{
		{civil.Date{Year: 2024, Month: time.January, Day: 31}, 1, civil.Date{Year: 2024, Month: time.February, Day: 29}},
		{civil.Date{Year: 2023, Month: time.December, Day: 15}, 1, civil.Date{Year: 2024, Month: time.January, Day: 15}},
		{civil.Date{Year: 2024, Month: time.February, Day: 29}, 12, civil.Date{Year: 2025, Month: time.February, Day: 28}},
	}
	for _, tt := range tests {
		if got := AddMonths(tt.in, tt.n); got != tt.want {
			t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestMonthlyEquivalent(t *testing.T) {
	weekly := Pattern{Frequency: FrequencyWeekly, Amount: decimal.NewFromInt(120)}
	if got := weekly.MonthlyEquivalent(); !got.Equal(decimal.NewFromInt(520)) {
		t.Errorf("weekly monthly equivalent = %s, want 520", got)
	}
	quarterly := Pattern{Frequency: FrequencyQuarterly, Amount: decimal.NewFromInt(1800)}
	if got := quarterly.MonthlyEquivalent(); !got.Equal(decimal.NewFromInt(600)) {
		t.Errorf("quarterly monthly equivalent = %s, want 600", got)
	}
	yearly := Pattern{Frequency: FrequencyYearly, Amount: decimal.NewFromInt(1200)}
	if got := yearly.MonthlyEquivalent(); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("yearly monthly equivalent = %s, want 100", got)
	}
}
