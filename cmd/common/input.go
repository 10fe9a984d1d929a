// Package common contains shared argument parsing for command handlers
package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/models"
)

// now is replaced in tests.
var now = time.Now

// PositiveAmount parses a record amount.
func PositiveAmount(s string) (decimal.Decimal, error) {
	amount, err := models.ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", amount)
	}
	return amount, nil
}

// Date parses a record date. An empty value means today.
func Date(s string) (models.Date, error) {
	if strings.TrimSpace(s) == "" {
		return models.DateOf(now()), nil
	}
	return models.ParseDate(s)
}

// Year returns y, or the current year when y is zero.
func Year(y int) (int, error) {
	if y == 0 {
		return now().Year(), nil
	}
	if y < 1900 || y > 9999 {
		return 0, fmt.Errorf("year %d out of range", y)
	}
	return y, nil
}

// Month parses "3", "03", "mar" or "March". An empty value means the whole
// year and returns zero.
func Month(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return time.Month(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}
