package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

const legacyDocument = `{
  "categories": ["Household cost", "Car", "Savings cost"],
  "subcategories": {
    "Household cost": {"Groceries": ["Market", "Bakery"], "Rent": []},
    "Car": ["Fuel", "Insurance"],
    "Travel": {"Flights": []}
  },
  "transactions": [
    {"type": "expense", "category": "Household cost", "subcategory": "Groceries", "location": "Lidl", "amount": 12.5, "date": "05/03/2024"}
  ],
  "bd_transactions": [
    {"category": "Car", "subcategory": "Fuel", "subsubcategory": "", "amount": "1,500", "date": "2024-04-01"}
  ],
  "income_sources": [{"source": "Salary", "amount": 3000, "date": "25/01/2024"}],
  "investments": [{"category": "Stocks", "amount": 200, "date": "01/02/2024", "description": "ETF"}],
  "investment_returns": [{"category": "Stocks", "amount": 12, "date": "01/06/2024", "type": "Dividend"}],
  "investment_categories": ["Stocks"],
  "bd_balance": 25000.0,
  "bd_conversion_rate": 132.5,
  "initial_euro_balance": 1000
}`

func TestDecode_LegacyDocument(t *testing.T) {
	s, issues, err := Decode([]byte(legacyDocument))
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.Len(t, s.Categories, 4)
	assert.Equal(t, "Household cost", s.Categories[0].Name)
	assert.Equal(t, []taxonomy.SubcategorySpec{
		{Name: "Groceries", Items: []string{"Market", "Bakery"}},
		{Name: "Rent", Items: []string{}},
	}, s.Categories[0].Subcategories)
	assert.Equal(t, "Fuel", s.Categories[1].Subcategories[0].Name)
	assert.Empty(t, s.Categories[2].Subcategories)
	assert.Equal(t, "Travel", s.Categories[3].Name, "subcategory keys without a listed category are kept")

	require.Len(t, s.HomeExpenses, 1)
	home := s.HomeExpenses[0]
	assert.Equal(t, models.RegionHome, home.Region)
	assert.Equal(t, "", home.Subsubcategory)
	assert.Equal(t, "Lidl", home.Location)
	assert.Equal(t, "12.5", home.Amount.String())
	assert.Equal(t, "2024-03-05", home.Date.String())

	require.Len(t, s.ForeignExpenses, 1)
	assert.Equal(t, "1500", s.ForeignExpenses[0].Amount.String())
	assert.Equal(t, models.RegionForeign, s.ForeignExpenses[0].Region)

	assert.Equal(t, "Salary", s.Income[0].Source)
	assert.Equal(t, "ETF", s.Investments[0].Description)
	assert.Equal(t, "Dividend", s.Returns[0].Kind)
	assert.Equal(t, []string{"Stocks"}, s.InvestmentCategories)
	assert.Equal(t, "25000", s.ForeignBalance.String())
	assert.Equal(t, "132.5", s.ConversionRate.String())
	assert.Equal(t, "1000", s.InitialBalance.String())
}

func TestDecode_NestedCategoriesKeepOrder(t *testing.T) {
	s, _, err := Decode([]byte(`{"categories": {"Zeta": {"B": ["y", "x"], "A": null}, "Alpha": {}, "Mid": ["Only"]}}`))
	require.NoError(t, err)

	var names []string
	for _, c := range s.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names)
	assert.Equal(t, "B", s.Categories[0].Subcategories[0].Name)
	assert.Equal(t, []string{"y", "x"}, s.Categories[0].Subcategories[0].Items)
	assert.Nil(t, s.Categories[0].Subcategories[1].Items)
	assert.Equal(t, "Only", s.Categories[2].Subcategories[0].Name)
}

func TestDecode_Defaults(t *testing.T) {
	s, _, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, s.ConversionRate.Equal(DefaultConversionRate))
	assert.True(t, s.InitialBalance.IsZero())
	assert.Zero(t, s.Records())

	s, _, err = Decode([]byte(`{"conversion_rate": 0}`))
	require.NoError(t, err)
	assert.True(t, s.ConversionRate.Equal(DefaultConversionRate), "non-positive rate falls back to default")
}

func TestDecode_Errors(t *testing.T) {
	for _, doc := range []string{`not json`, `[1, 2]`, `"text"`} {
		_, _, err := Decode([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestDecode_SkipsMalformedRecords(t *testing.T) {
	s, issues, err := Decode([]byte(`{
  "categories": ["Car"],
  "expenses": [
    {"category": "Car", "amount": 10, "date": "2024-03-01"},
    {"category": "Car", "amount": 11, "date": "2024/3/5"},
    {"category": "Car", "amount": "lots", "date": "2024-03-02"},
    {"category": "Car", "amount": 12, "date": "2024-03-03"}
  ],
  "income_sources": [{"source": "x", "amount": 1, "date": "someday"}, {"source": "y", "amount": 2, "date": "2024-01-01"}],
  "investments": {"oops": true},
  "investment_categories": ["Stocks", 7],
  "conversion_rate": "fast",
  "initial_balance": 250
}`))
	require.NoError(t, err)

	require.Len(t, s.HomeExpenses, 2)
	assert.Equal(t, "10", s.HomeExpenses[0].Amount.String())
	assert.Equal(t, "12", s.HomeExpenses[1].Amount.String())
	require.Len(t, s.Income, 1)
	assert.Equal(t, "y", s.Income[0].Source)
	assert.Empty(t, s.Investments)
	assert.Equal(t, []string{"Stocks"}, s.InvestmentCategories)
	assert.True(t, s.ConversionRate.Equal(DefaultConversionRate))
	assert.Equal(t, "250", s.InitialBalance.String())
	assert.Equal(t, "Car", s.Categories[0].Name)

	var where []string
	for _, is := range issues {
		require.Error(t, is.Err)
		where = append(where, fmt.Sprintf("%s/%d", is.Section, is.Index))
	}
	assert.Equal(t, []string{
		"expenses/1", "expenses/2", "income_sources/0", "investments/-1",
		"investment_categories/1", "conversion_rate/-1",
	}, where)
	assert.Contains(t, issues[0].Error(), "expenses[1]")
}

func TestDecode_BadCategoriesKeepRecords(t *testing.T) {
	s, issues, err := Decode([]byte(`{"categories": 7, "expenses": [{"category": "Car", "amount": 1, "date": "2024-01-01"}]}`))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "categories", issues[0].Section)
	assert.Equal(t, "categories: decoding categories: want an object or a list", issues[0].Error())
	assert.Empty(t, s.Categories)
	assert.Len(t, s.HomeExpenses, 1)
}

func sample() *Snapshot {
	s := Default([]string{"Food", "Car"}, decimal.NewFromInt(140))
	s.Categories[0].Subcategories = []taxonomy.SubcategorySpec{{Name: "Groceries", Items: []string{"Market"}}}
	s.HomeExpenses = []models.Expense{{
		Region: models.RegionHome, Category: "Food", Subcategory: "Groceries", Subsubcategory: "Market",
		Amount: decimal.RequireFromString("50.00"), Date: models.MustParseDate("2024-03-10"), Location: "Market hall",
	}}
	s.ForeignExpenses = []models.Expense{{
		Region: models.RegionForeign, Category: "Car", Amount: decimal.RequireFromString("1400"),
		Date: models.MustParseDate("2024-03-11"),
	}}
	s.Income = []models.IncomeEntry{{Source: "Salary", Amount: decimal.RequireFromString("3000.10"), Date: models.MustParseDate("2024-03-01")}}
	s.Investments = []models.InvestmentEntry{{
		Category: "Stocks", Amount: decimal.NewFromInt(200), Date: models.MustParseDate("2024-03-02"),
		Description: "ETF", CounterpartyName: "Broker", CounterpartyAddress: "Main St 1",
	}}
	s.Returns = []models.ReturnEntry{{Category: "Stocks", Kind: "Dividend", Amount: decimal.NewFromInt(5), Date: models.MustParseDate("2024-06-01")}}
	s.InvestmentCategories = []string{"Stocks"}
	s.InitialBalance = decimal.RequireFromString("-12.34")
	s.ForeignBalance = decimal.NewFromInt(9000)
	return s
}

func TestRoundTrip(t *testing.T) {
	original := sample()

	data, err := Encode(original)
	require.NoError(t, err)
	decoded, issues, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, issues)
	assert.True(t, original.Equal(decoded))

	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestEncode_Layout(t *testing.T) {
	data, err := Encode(sample())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"categories", "expenses", "foreign_expenses", "income_sources",
		"investments", "investment_returns", "investment_categories", "foreign_balance",
		"conversion_rate", "initial_balance"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "transactions")

	text := string(data)
	assert.Contains(t, text, `"amount": 50`)
	assert.Contains(t, text, `"date": "2024-03-10"`)
	assert.Less(t, strings.Index(text, `"Food"`), strings.Index(text, `"Car"`))
	assert.Equal(t, `{"Food":{"Groceries":["Market"]},"Car":{}}`, mustCompact(t, raw["categories"]))
}

func TestSnapshot_EqualDetectsDifferences(t *testing.T) {
	a, b := sample(), sample()
	assert.True(t, a.Equal(b))

	b.HomeExpenses[0].Amount = decimal.RequireFromString("50.01")
	assert.False(t, a.Equal(b))

	c := sample()
	c.Categories[1].Name = "Bike"
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func mustCompact(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, raw))
	return buf.String()
}
