// Package cashflow projects a short-horizon daily balance from detected
// recurring income and expenses. It is a calendar simulation: days without a
// recurring event carry the previous balance forward unchanged.
package cashflow

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"spendlens/internal/models"
	"spendlens/internal/recurring"
)

// DefaultHorizonDays is the projection length when none is configured.
const DefaultHorizonDays = 30

// Options tunes the projection.
type Options struct {
	HorizonDays int
	// Today is day 0; zero means the current UTC date.
	Today     civil.Date
	Recurring recurring.Options
}

// DefaultOptions returns a 30 day projection.
func DefaultOptions() Options {
	return Options{HorizonDays: DefaultHorizonDays, Recurring: recurring.DefaultOptions()}
}

// Event is one expected transaction on a projected day.
type Event struct {
	MerchantName string              `json:"merchant_name"`
	Category     string              `json:"category"`
	Direction    models.Direction    `json:"direction"`
	Amount       decimal.Decimal     `json:"amount"`
	Frequency    recurring.Frequency `json:"frequency"`
}

// Point is the projected state at the end of one day.
type Point struct {
	Day     int             `json:"day"`
	Date    civil.Date      `json:"date"`
	Balance decimal.Decimal `json:"balance"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Events  []Event         `json:"events"`
}

// Project detects recurring income and expenses in txs and simulates the
// balance over the horizon starting from startingBalance.
func Project(txs []models.Transaction, startingBalance decimal.Decimal, opts Options) []Point {
	opts = fill(opts)
	ropts := opts.Recurring
	ropts.IncludeIncome = true
	ropts.Today = opts.Today
	return ProjectPatterns(recurring.Detect(txs, ropts), startingBalance, opts)
}

// ProjectPatterns simulates the balance for already detected patterns.
//
// Point 0 is today and always equals startingBalance; the starting balance is
// assumed to include anything due today. Occurrences on or before today are
// stepped over, so a pattern that is slightly overdue still contributes its
// later occurrences. Lapsed patterns are not projected.
func ProjectPatterns(patterns []recurring.Pattern, startingBalance decimal.Decimal, opts Options) []Point {
	opts = fill(opts)

	points := make([]Point, opts.HorizonDays)
	for d := range points {
		points[d] = Point{
			Day:     d,
			Date:    opts.Today.AddDays(d),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Events:  []Event{},
		}
	}

	for _, p := range patterns {
		if p.Status == recurring.StatusLapsed {
			continue
		}
		for at := p.NextDate; ; at = recurring.Next(at, p.Frequency) {
			day := at.DaysSince(opts.Today)
			if day >= opts.HorizonDays {
				break
			}
			if day <= 0 {
				continue
			}
			pt := &points[day]
			pt.Events = append(pt.Events, Event{
				MerchantName: p.MerchantName,
				Category:     p.Category,
				Direction:    p.Direction,
				Amount:       p.Amount,
				Frequency:    p.Frequency,
			})
			if p.Direction == models.DirectionIncome {
				pt.Income = pt.Income.Add(p.Amount)
			} else {
				pt.Expense = pt.Expense.Add(p.Amount)
			}
		}
	}

	balance := startingBalance
	for d := range points {
		if d > 0 {
			balance = balance.Sub(points[d].Expense).Add(points[d].Income)
		}
		points[d].Balance = balance
	}
	return points
}

// Lowest returns the point with the smallest balance, the first one on ties.
func Lowest(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	low := points[0]
	for _, p := range points[1:] {
		if p.Balance.LessThan(low.Balance) {
			low = p
		}
	}
	return low, true
}

func fill(opts Options) Options {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = DefaultHorizonDays
	}
	if opts.Today == (civil.Date{}) {
		opts.Today = civil.DateOf(time.Now().UTC())
	}
	return opts
}
