// Package dateutils provides the date parsing used when reading persisted or
// imported ledger data. Legacy files store dates as day/month/year while newer
// ones use ISO dates, so parsing tries a fixed list of layouts in order.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutLegacy   = "02/01/2006"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutRFC3339  = time.RFC3339
)

// CommonFormats is the ordered list of layouts tried by ParseDate. Slash dates
// are day-first: the legacy ledger never wrote month-first dates.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutLegacy,
	"2/1/2006",
	DateLayoutEuropean,
	"2.1.2006",
	"02-01-2006",
	DateLayoutFull,
	DateLayoutRFC3339,
	"2006/01/02",
	"2 January 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using CommonFormats.
// Returns the parsed date truncated to midnight UTC and the detected layout.
func ParseDate(dateStr string) (time.Time, string, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, "", fmt.Errorf("unable to parse date: empty string")
	}

	for _, layout := range CommonFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), layout, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// FormatDate formats a time.Time value according to the specified layout.
// If no layout is provided, DateLayoutISO is used.
func FormatDate(date time.Time, layout string) string {
	if layout == "" {
		layout = DateLayoutISO
	}
	return date.Format(layout)
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
