// Package snapshot defines the persisted ledger document and its JSON codec.
// Decoding accepts the legacy layouts and field names; encoding always
// writes the current layout.
package snapshot

import (
	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// DefaultConversionRate is used when a document carries no rate.
var DefaultConversionRate = decimal.NewFromInt(140)

// Settings are the scalar values stored alongside the records.
type Settings struct {
	ConversionRate decimal.Decimal
	InitialBalance decimal.Decimal
	ForeignBalance decimal.Decimal
}

// Snapshot is the complete persisted state of a session. Record IDs and
// node IDs are not part of it; they are assigned again on load.
type Snapshot struct {
	Categories           []taxonomy.CategorySpec
	HomeExpenses         []models.Expense
	ForeignExpenses      []models.Expense
	Income               []models.IncomeEntry
	Investments          []models.InvestmentEntry
	Returns              []models.ReturnEntry
	InvestmentCategories []string
	Settings
}

// Default returns an empty snapshot seeded with the given top-level
// categories.
func Default(categories []string, rate decimal.Decimal) *Snapshot {
	if !rate.IsPositive() {
		rate = DefaultConversionRate
	}
	s := &Snapshot{
		Settings: Settings{
			ConversionRate: rate,
			InitialBalance: decimal.Zero,
			ForeignBalance: decimal.Zero,
		},
	}
	for _, c := range categories {
		s.Categories = append(s.Categories, taxonomy.CategorySpec{Name: c})
	}
	return s
}

// Records returns the total number of records in the snapshot.
func (s *Snapshot) Records() int {
	return len(s.HomeExpenses) + len(s.ForeignExpenses) + len(s.Income) +
		len(s.Investments) + len(s.Returns)
}

// Equal reports structural equality. Decimal values compare numerically.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !equalSpecs(s.Categories, o.Categories) ||
		!equalStrings(s.InvestmentCategories, o.InvestmentCategories) ||
		!s.ConversionRate.Equal(o.ConversionRate) ||
		!s.InitialBalance.Equal(o.InitialBalance) ||
		!s.ForeignBalance.Equal(o.ForeignBalance) {
		return false
	}
	return equalSlices(s.HomeExpenses, o.HomeExpenses, expenseEqual) &&
		equalSlices(s.ForeignExpenses, o.ForeignExpenses, expenseEqual) &&
		equalSlices(s.Income, o.Income, func(a, b models.IncomeEntry) bool {
			return a.Source == b.Source && a.Amount.Equal(b.Amount) && a.Date.Equal(b.Date.Time)
		}) &&
		equalSlices(s.Investments, o.Investments, func(a, b models.InvestmentEntry) bool {
			return a.Category == b.Category && a.Amount.Equal(b.Amount) && a.Date.Equal(b.Date.Time) &&
				a.Description == b.Description && a.CounterpartyName == b.CounterpartyName &&
				a.CounterpartyAddress == b.CounterpartyAddress
		}) &&
		equalSlices(s.Returns, o.Returns, func(a, b models.ReturnEntry) bool {
			return a.Category == b.Category && a.Kind == b.Kind && a.Amount.Equal(b.Amount) &&
				a.Date.Equal(b.Date.Time) && a.Description == b.Description &&
				a.CounterpartyName == b.CounterpartyName && a.CounterpartyAddress == b.CounterpartyAddress
		})
}

func expenseEqual(a, b models.Expense) bool {
	return a.Region == b.Region && a.Category == b.Category && a.Subcategory == b.Subcategory &&
		a.Subsubcategory == b.Subsubcategory && a.Amount.Equal(b.Amount) &&
		a.Date.Equal(b.Date.Time) && a.Location == b.Location
}

func equalSlices[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	return equalSlices(a, b, func(x, y string) bool { return x == y })
}

func equalSpecs(a, b []taxonomy.CategorySpec) bool {
	return equalSlices(a, b, func(x, y taxonomy.CategorySpec) bool {
		return x.Name == y.Name && equalSlices(x.Subcategories, y.Subcategories, func(p, q taxonomy.SubcategorySpec) bool {
			return p.Name == q.Name && equalStrings(p.Items, q.Items)
		})
	})
}
