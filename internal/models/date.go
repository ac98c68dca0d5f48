package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// NullDate is a calendar date with no time component that may be absent.
// Statement rows whose date cannot be parsed are stored with Valid == false.
type NullDate struct {
	Date  civil.Date
	Valid bool
}

// NewDate wraps a civil date as a present NullDate.
func NewDate(d civil.Date) NullDate {
	return NullDate{Date: d, Valid: true}
}

// String returns the ISO date or an empty string when absent.
func (d NullDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Date.String()
}

// Scan implements sql.Scanner. Postgres returns time.Time for date columns;
// SQLite may return either time.Time or the stored text.
func (d *NullDate) Scan(value interface{}) error {
	if value == nil {
		d.Date, d.Valid = civil.Date{}, false
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		d.Date, d.Valid = civil.DateOf(v), true
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}
	return fmt.Errorf("models.NullDate: cannot scan %T", value)
}

func (d *NullDate) parse(s string) error {
	if len(s) > 10 {
		s = s[:10]
	}
	parsed, err := civil.ParseDate(s)
	if err != nil {
		return fmt.Errorf("models.NullDate: %w", err)
	}
	d.Date, d.Valid = parsed, true
	return nil
}

// Value implements driver.Valuer.
func (d NullDate) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Date.String(), nil
}

// MarshalJSON renders the date as "YYYY-MM-DD" or null.
func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Date.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *NullDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Date, d.Valid = civil.Date{}, false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Date, d.Valid = civil.Date{}, false
		return nil
	}
	return d.parse(s)
}
