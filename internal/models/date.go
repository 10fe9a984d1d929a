package models

import (
	"fmt"
	"time"

	"github.com/msahsan119/finman/internal/dateutils"
)

// Date is a calendar day without time of day, always held at midnight UTC.
type Date struct {
	time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses any layout accepted by dateutils.ParseDate.
func ParseDate(s string) (Date, error) {
	t, _, err := dateutils.ParseDate(s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// MustParseDate is ParseDate for literals in tests and defaults.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return dateutils.FormatDate(d.Time, dateutils.DateLayoutISO)
}

// Legacy formats the date as DD/MM/YYYY.
func (d Date) Legacy() string {
	if d.IsZero() {
		return ""
	}
	return dateutils.FormatDate(d.Time, dateutils.DateLayoutLegacy)
}

// InYear reports whether the date falls in year.
func (d Date) InYear(year int) bool {
	return !d.IsZero() && d.Year() == year
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with legacy layouts.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	*d = parsed
	return nil
}
