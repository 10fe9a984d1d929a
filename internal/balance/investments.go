package balance

import (
	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/ledger"
)

// CategoryFlow is the money in and out of one investment category.
type CategoryFlow struct {
	Category string
	Invested decimal.Decimal
	Returns  decimal.Decimal
}

// Net is returns minus invested.
func (f CategoryFlow) Net() decimal.Decimal { return f.Returns.Sub(f.Invested) }

// InvestmentSummary aggregates the investment collections over all time.
type InvestmentSummary struct {
	Invested   decimal.Decimal
	Returns    decimal.Decimal
	NetProfit  decimal.Decimal
	ByCategory []CategoryFlow
}

// SummarizeInvestments totals invested money and returns per registered
// category, in registry order.
func SummarizeInvestments(store *ledger.Store) *InvestmentSummary {
	flows := make(map[string]*CategoryFlow)
	var order []string
	flow := func(cat string) *CategoryFlow {
		f, ok := flows[cat]
		if !ok {
			f = &CategoryFlow{Category: cat}
			flows[cat] = f
			order = append(order, cat)
		}
		return f
	}
	for _, cat := range store.InvestmentCategories() {
		flow(cat)
	}

	sum := &InvestmentSummary{}
	for rec := range store.Investments().All() {
		f := flow(rec.Category)
		f.Invested = f.Invested.Add(rec.Amount)
		sum.Invested = sum.Invested.Add(rec.Amount)
	}
	for rec := range store.Returns().All() {
		f := flow(rec.Category)
		f.Returns = f.Returns.Add(rec.Amount)
		sum.Returns = sum.Returns.Add(rec.Amount)
	}
	sum.NetProfit = sum.Returns.Sub(sum.Invested)
	for _, cat := range order {
		sum.ByCategory = append(sum.ByCategory, *flows[cat])
	}
	return sum
}
