package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"spendlens/internal/models"
)

// excelEpochOffset is the Excel serial number of 1970-01-01.
const excelEpochOffset = 25569

// maxExcelSerial is the serial of 9999-12-31, the last date Excel can hold.
const maxExcelSerial = 2958465

var (
	unixEpoch = civil.Date{Year: 1970, Month: time.January, Day: 1}

	serialString  = regexp.MustCompile(`^\d{5}(\.\d+)?$`)
	dayMonthYear4 = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})(?:[ T].*)?$`)
	dayMonthYear2 = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2})(?:[ T].*)?$`)
	amountJunk    = regexp.MustCompile(`[^\d.\-]`)
)

// genericLayouts are the last-resort date formats, tried in order.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02.01.2006",
	"01/02/2006",
	"1/2/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"02 Jan 06",
	"02-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"Mon, 02 Jan 2006",
	"20060102",
}

// ParseDate converts a raw cell into a calendar date. The second result is
// false when the value is not a recognizable date.
func ParseDate(v any) (civil.Date, bool) {
	switch val := v.(type) {
	case nil:
		return civil.Date{}, false
	case civil.Date:
		return val, val.IsValid()
	case time.Time:
		if val.IsZero() {
			return civil.Date{}, false
		}
		return civil.DateOf(val), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return civil.Date{}, false
		}
		return civil.DateOf(*val), true
	case string:
		return parseDateString(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return fromExcelSerial(f)
		}
		return parseDateString(val.String())
	}

	if f, ok := toFloat(v); ok {
		return fromExcelSerial(f)
	}
	return parseDateString(fmt.Sprint(v))
}

func parseDateString(raw string) (civil.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return civil.Date{}, false
	}

	if serialString.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromExcelSerial(f)
		}
	}

	if m := dayMonthYear4.FindStringSubmatch(s); m != nil {
		if d, ok := dateFromParts(m[1], m[2], m[3], 0); ok {
			return d, true
		}
	} else if m := dayMonthYear2.FindStringSubmatch(s); m != nil {
		if d, ok := dateFromParts(m[1], m[2], m[3], 2000); ok {
			return d, true
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

func dateFromParts(day, month, year string, century int) (civil.Date, bool) {
	dd, _ := strconv.Atoi(day)
	mm, _ := strconv.Atoi(month)
	yy, _ := strconv.Atoi(year)
	d := civil.Date{Year: century + yy, Month: time.Month(mm), Day: dd}
	return d, d.IsValid()
}

func fromExcelSerial(serial float64) (civil.Date, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxExcelSerial {
		return civil.Date{}, false
	}
	return unixEpoch.AddDays(int(math.Floor(serial)) - excelEpochOffset), true
}

// ParseAmount strips every character other than digits, '-' and '.', then
// parses the rest. Unparseable or empty input yields zero and false.
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case string:
		return parseAmountString(val)
	case json.Number:
		return parseAmountString(val.String())
	}

	if f, ok := toFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(f), true
	}
	return parseAmountString(fmt.Sprint(v))
}

func parseAmountString(raw string) (decimal.Decimal, bool) {
	clean := amountJunk.ReplaceAllString(raw, "")
	if clean == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ResolveDirection classifies a row as income or expense. Precedence:
//  1. a non-zero withdrawal/debit cell means expense
//  2. else a non-zero deposit/credit cell means income
//  3. else an explicit type column (DR/CR, debit/credit, ...)
//  4. else the sign of the generic amount column
//  5. else expense
//
// This is the only place direction is decided; everything else reads
// Transaction.Direction.
func ResolveDirection(row RawRow, fields FieldMap) models.Direction {
	if nonZero(row, fields.Withdrawal) {
		return models.DirectionExpense
	}
	if nonZero(row, fields.Deposit) {
		return models.DirectionIncome
	}
	if fields.Type != "" {
		if dir, ok := directionFromType(cellString(row[fields.Type])); ok {
			return dir
		}
	}
	if fields.Amount != "" {
		if amt, ok := ParseAmount(row[fields.Amount]); ok {
			if amt.IsNegative() {
				return models.DirectionExpense
			}
			return models.DirectionIncome
		}
	}
	return models.DirectionExpense
}

func directionFromType(raw string) (models.Direction, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "dr", "d", "debit", "expense", "withdrawal", "out", "payment":
		return models.DirectionExpense, true
	case "cr", "c", "credit", "income", "deposit", "in", "receipt":
		return models.DirectionIncome, true
	}
	switch {
	case strings.Contains(s, "debit"), strings.Contains(s, "withdraw"):
		return models.DirectionExpense, true
	case strings.Contains(s, "credit"), strings.Contains(s, "deposit"):
		return models.DirectionIncome, true
	}
	return "", false
}

// magnitude returns the non-negative amount of a row following the same
// column precedence as ResolveDirection. ok is false when no amount-bearing
// cell could be parsed.
func magnitude(row RawRow, fields FieldMap) (decimal.Decimal, bool) {
	if nonZero(row, fields.Withdrawal) {
		amt, _ := ParseAmount(row[fields.Withdrawal])
		return amt.Abs(), true
	}
	if nonZero(row, fields.Deposit) {
		amt, _ := ParseAmount(row[fields.Deposit])
		return amt.Abs(), true
	}

	resolved := false
	for _, key := range []string{fields.Amount, fields.Withdrawal, fields.Deposit} {
		if key == "" {
			continue
		}
		if amt, ok := ParseAmount(row[key]); ok {
			if !amt.IsZero() {
				return amt.Abs(), true
			}
			resolved = true
		}
	}
	return decimal.Zero, resolved
}

func nonZero(row RawRow, key string) bool {
	if key == "" {
		return false
	}
	amt, ok := ParseAmount(row[key])
	return ok && !amt.IsZero()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// cellString renders a raw cell as text without reformatting strings.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
