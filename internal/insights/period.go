package insights

import (
	"fmt"

	"cloud.google.com/go/civil"

	"spendlens/internal/recurring"
)

// Period is an inclusive date range.
type Period struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// NewPeriod validates and returns a period.
func NewPeriod(start, end civil.Date) (Period, error) {
	if !start.IsValid() || !end.IsValid() {
		return Period{}, fmt.Errorf("invalid period bounds %s..%s", start, end)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("period end %s is before start %s", end, start)
	}
	return Period{Start: start, End: end}, nil
}

// MonthPeriod covers the whole calendar month containing d.
func MonthPeriod(d civil.Date) Period {
	start := civil.Date{Year: d.Year, Month: d.Month, Day: 1}
	return Period{Start: start, End: recurring.AddMonths(start, 1).AddDays(-1)}
}

// Contains reports whether d falls within the period.
func (p Period) Contains(d civil.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days is the inclusive length of the period.
func (p Period) Days() int {
	return p.End.DaysSince(p.Start) + 1
}

// months returns the number of whole calendar months the period spans, or 0
// when it does not start on the 1st and end on a month's last day.
func (p Period) months() int {
	if p.Start.Day != 1 || p.End.AddDays(1).Day != 1 {
		return 0
	}
	return monthIndex(p.End) - monthIndex(p.Start) + 1
}

// Previous is the period of equal length immediately before p. Whole-month
// periods step back by calendar months so April compares with March.
func (p Period) Previous() Period {
	if n := p.months(); n > 0 {
		start := recurring.AddMonths(p.Start, -n)
		return Period{Start: start, End: p.Start.AddDays(-1)}
	}
	days := p.Days()
	return Period{Start: p.Start.AddDays(-days), End: p.Start.AddDays(-1)}
}

// String renders the period as "start..end".
func (p Period) String() string {
	return p.Start.String() + ".." + p.End.String()
}

func monthIndex(d civil.Date) int {
	return d.Year*12 + int(d.Month) - 1
}
