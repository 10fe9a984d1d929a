package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/msahsan119/finman/internal/ledgererr"
)

func TestExpenseValidate(t *testing.T) {
	date := NewDate(2024, time.March, 10)
	tests := []struct {
		name    string
		expense Expense
		field   string
	}{
		{"valid", Expense{Region: RegionHome, Category: "Food", Date: date}, ""},
		{"missing category", Expense{Region: RegionHome, Date: date}, "category"},
		{"missing date", Expense{Region: RegionForeign, Category: "Food"}, "date"},
		{"bad region", Expense{Region: RegionAll, Category: "Food", Date: date}, "region"},
		{"subsub without sub", Expense{Region: RegionHome, Category: "Food", Subsubcategory: "Aldi", Date: date}, "subcategory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expense.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var recErr *ledgererr.InvalidRecordError
			assert.True(t, errors.As(err, &recErr))
			assert.Equal(t, tt.field, recErr.Field)
			assert.ErrorIs(t, err, ledgererr.ErrInvalidRecord)
		})
	}
}

func TestOtherRecordsValidate(t *testing.T) {
	date := NewDate(2024, time.January, 1)
	amount := decimal.NewFromInt(10)

	assert.NoError(t, (&IncomeEntry{Source: "Salary", Amount: amount, Date: date}).Validate())
	assert.ErrorIs(t, (&IncomeEntry{Amount: amount, Date: date}).Validate(), ledgererr.ErrInvalidRecord)
	assert.NoError(t, (&InvestmentEntry{Category: "ETF", Amount: amount, Date: date}).Validate())
	assert.ErrorIs(t, (&InvestmentEntry{Category: "ETF", Amount: amount}).Validate(), ledgererr.ErrInvalidRecord)
	assert.NoError(t, (&ReturnEntry{Category: "ETF", Kind: "Dividend", Amount: amount, Date: date}).Validate())
	assert.ErrorIs(t, (&ReturnEntry{Amount: amount, Date: date}).Validate(), ledgererr.ErrInvalidRecord)
}

func TestExpenseFields(t *testing.T) {
	e := Expense{Category: "Food", Subcategory: "Groceries"}
	assert.Equal(t, []string{"Food", "Groceries"}, e.Names())

	e.SetField(2, "Market")
	e.SetField(3, "Aldi")
	assert.Equal(t, "Market", e.Field(2))
	assert.Equal(t, []string{"Food", "Market", "Aldi"}, e.Names())
	assert.Equal(t, "", e.Field(4))
}

func TestDateText(t *testing.T) {
	var d Date
	assert.NoError(t, d.UnmarshalText([]byte("10/03/2024")))
	assert.Equal(t, NewDate(2024, time.March, 10), d)
	assert.Equal(t, "2024-03-10", d.String())
	assert.Equal(t, "10/03/2024", d.Legacy())
	assert.True(t, d.InYear(2024))
	assert.False(t, d.InYear(2023))

	assert.Error(t, d.UnmarshalText([]byte("yesterday")))
	assert.Equal(t, "", Date{}.String())
}

func TestParseRegion(t *testing.T) {
	for in, want := range map[string]Region{"home": RegionHome, "EUR": RegionHome, "bd": RegionForeign, "foreign": RegionForeign, "both": RegionAll} {
		got, err := ParseRegion(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseRegion("mars")
	assert.Error(t, err)
}
