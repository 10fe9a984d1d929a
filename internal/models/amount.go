package models

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyNoise = regexp.MustCompile(`[€$£৳\s]|EUR|BDT|CHF|Tk`)

// ParseAmount parses a user- or file-supplied amount. It accepts "1234.56",
// "1,234.56", "1.234,56", "1234,56" and strips currency symbols.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q: empty", amountStr)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount converts the accepted amount spellings to the form
// understood by decimal.NewFromString.
func StandardizeAmount(amountStr string) string {
	amountStr = currencyNoise.ReplaceAllString(amountStr, "")

	if strings.Contains(amountStr, ",") && strings.Contains(amountStr, ".") {
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	} else if strings.Contains(amountStr, ",") {
		parts := strings.Split(amountStr, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}

	return strings.ReplaceAll(amountStr, "'", "")
}

// AmountFromFloat converts a float read from a legacy document. NaN and the
// infinities are rejected because decimal cannot represent them.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("amount %v is not finite", f)
	}
	return decimal.NewFromFloat(f), nil
}
