// Package recurring detects subscriptions and recurring bills in a
// transaction history.
package recurring

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"spendlens/internal/merchant"
	"spendlens/internal/models"
)

// Frequency is the classified cadence of a recurring pattern.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyIrregular Frequency = "irregular"
)

// Status describes a pattern's next due date relative to today.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpiring Status = "expiring"
	StatusLapsed   Status = "lapsed"
)

// Gap bands in days.
const (
	dailyBelow     = 3
	weeklyUpTo     = 10
	monthlyUpTo    = 40
	quarterDays    = 91
	quarterDrift   = 15
	yearDays       = 365
	yearlyDriftDay = 30
)

// Defaults for Options.
const (
	DefaultMinConfidence      = 0.6
	DefaultExpiringWindowDays = 7
)

// Options tunes detection.
type Options struct {
	// IncludeIncome also reports recurring income such as salary.
	IncludeIncome bool
	// MinConfidence is the share of gaps that must fall in the dominant band.
	MinConfidence float64
	// ExpiringWindowDays marks patterns due within this many days as
	// expiring. A pattern overdue by no more than the window is also
	// expiring; beyond that it is lapsed.
	ExpiringWindowDays int
	// Today is the reference date for status; zero means the current UTC date.
	Today civil.Date
}

// DefaultOptions returns the standard expense-only options.
func DefaultOptions() Options {
	return Options{
		MinConfidence:      DefaultMinConfidence,
		ExpiringWindowDays: DefaultExpiringWindowDays,
	}
}

func (o Options) withDefaults() Options {
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.ExpiringWindowDays <= 0 {
		o.ExpiringWindowDays = DefaultExpiringWindowDays
	}
	if o.Today == (civil.Date{}) {
		o.Today = civil.DateOf(time.Now().UTC())
	}
	return o
}

// Pattern is a detected recurring charge or income. It is derived on every
// call and never stored.
type Pattern struct {
	MerchantKey   string           `json:"merchant_key"`
	MerchantName  string           `json:"merchant_name"`
	Direction     models.Direction `json:"direction"`
	Category      string           `json:"category"`
	Amount        decimal.Decimal  `json:"amount"`
	AverageAmount decimal.Decimal  `json:"average_amount"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Frequency     Frequency        `json:"frequency"`
	Occurrences   int              `json:"occurrences"`
	Confidence    float64          `json:"confidence"`
	LastDate      civil.Date       `json:"last_date"`
	NextDate      civil.Date       `json:"next_date"`
	DaysUntilDue  int              `json:"days_until_due"`
	Status        Status           `json:"status"`
}

// MonthlyEquivalent converts the latest amount to a per-month cost.
func (p Pattern) MonthlyEquivalent() decimal.Decimal {
	switch p.Frequency {
	case FrequencyWeekly:
		return p.Amount.Mul(decimal.NewFromInt(52)).Div(decimal.NewFromInt(12)).Round(2)
	case FrequencyQuarterly:
		return p.Amount.Div(decimal.NewFromInt(3)).Round(2)
	case FrequencyYearly:
		return p.Amount.Div(decimal.NewFromInt(12)).Round(2)
	}
	return p.Amount
}

// Next returns the occurrence after d for freq.
func Next(d civil.Date, freq Frequency) civil.Date {
	switch freq {
	case FrequencyWeekly:
		return d.AddDays(7)
	case FrequencyMonthly:
		return AddMonths(d, 1)
	case FrequencyQuarterly:
		return AddMonths(d, 3)
	case FrequencyYearly:
		return AddMonths(d, 12)
	}
	return d.AddDays(1)
}

// AddMonths adds n calendar months, clamping the day to the end of the
// target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(d civil.Date, n int) civil.Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := d.Day
	if day > lastDay {
		day = lastDay
	}
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// classify buckets a gap (or an average gap) in days.
func classify(days float64) Frequency {
	switch {
	case days < dailyBelow:
		return FrequencyDaily
	case days <= weeklyUpTo:
		return FrequencyWeekly
	case days <= monthlyUpTo:
		return FrequencyMonthly
	case days >= quarterDays-quarterDrift && days <= quarterDays+quarterDrift:
		return FrequencyQuarterly
	case days >= yearDays-yearlyDriftDay && days <= yearDays+yearlyDriftDay:
		return FrequencyYearly
	}
	return FrequencyIrregular
}

type groupKey struct {
	merchant  string
	direction models.Direction
}

type occurrence struct {
	date civil.Date
	tx   *models.Transaction
}

// Detect groups dated transactions by merchant key and reports the groups
// that recur with a weekly, monthly, quarterly or yearly cadence. A merchant
// seen on a single date is never recurring. Results are ordered by next due date,
// then merchant key.
func Detect(txs []models.Transaction, opts Options) []Pattern {
	opts = opts.withDefaults()

	groups := make(map[groupKey]map[civil.Date]*models.Transaction)
	for i := range txs {
		tx := &txs[i]
		if !tx.Date.Valid {
			continue
		}
		if tx.Direction == models.DirectionIncome && !opts.IncludeIncome {
			continue
		}
		key := merchant.Key(tx.Description)
		if key == "" {
			continue
		}
		gk := groupKey{merchant: key, direction: tx.Direction}
		byDate, ok := groups[gk]
		if !ok {
			byDate = make(map[civil.Date]*models.Transaction)
			groups[gk] = byDate
		}
		// Same-day rows collapse to the later one.
		byDate[tx.Date.Date] = tx
	}

	patterns := make([]Pattern, 0)
	for gk, byDate := range groups {
		if len(byDate) < 2 {
			continue
		}
		if p, ok := detectGroup(gk, byDate, opts); ok {
			patterns = append(patterns, p)
		}
	}

	sort.Slice(patterns, func(i, j int) bool {
		a, b := patterns[i], patterns[j]
		if a.NextDate != b.NextDate {
			return a.NextDate.Before(b.NextDate)
		}
		if a.MerchantKey != b.MerchantKey {
			return a.MerchantKey < b.MerchantKey
		}
		return a.Direction < b.Direction
	})
	return patterns
}

func detectGroup(gk groupKey, byDate map[civil.Date]*models.Transaction, opts Options) (Pattern, bool) {
	occ := make([]occurrence, 0, len(byDate))
	for d, tx := range byDate {
		occ = append(occ, occurrence{date: d, tx: tx})
	}
	sort.Slice(occ, func(i, j int) bool { return occ[i].date.Before(occ[j].date) })

	gaps := make([]int, 0, len(occ)-1)
	sum := 0
	for i := 1; i < len(occ); i++ {
		g := occ[i].date.DaysSince(occ[i-1].date)
		gaps = append(gaps, g)
		sum += g
	}
	avg := float64(sum) / float64(len(gaps))

	freq := classify(avg)
	if freq == FrequencyDaily || freq == FrequencyIrregular {
		return Pattern{}, false
	}

	inBand := 0
	for _, g := range gaps {
		if classify(float64(g)) == freq {
			inBand++
		}
	}
	confidence := float64(inBand) / float64(len(gaps))
	if confidence < opts.MinConfidence {
		return Pattern{}, false
	}

	total := decimal.Zero
	for _, o := range occ {
		total = total.Add(o.tx.Amount)
	}
	latest := occ[len(occ)-1]
	next := Next(latest.date, freq)
	days := next.DaysSince(opts.Today)

	name := latest.tx.MerchantName
	if name == "" {
		name = merchant.DisplayName(latest.tx.Description, 2)
	}

	p := Pattern{
		MerchantKey:   gk.merchant,
		MerchantName:  name,
		Direction:     gk.direction,
		Category:      latest.tx.Category,
		Amount:        latest.tx.Amount,
		AverageAmount: total.Div(decimal.NewFromInt(int64(len(occ)))).Round(2),
		TotalAmount:   total,
		Frequency:     freq,
		Occurrences:   len(occ),
		Confidence:    confidence,
		LastDate:      latest.date,
		NextDate:      next,
		DaysUntilDue:  days,
		Status:        statusFor(days, opts.ExpiringWindowDays),
	}
	return p, true
}

func statusFor(daysUntilDue, window int) Status {
	switch {
	case daysUntilDue < -window:
		return StatusLapsed
	case daysUntilDue <= window:
		return StatusExpiring
	}
	return StatusActive
}
