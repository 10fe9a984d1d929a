package session

import (
	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/balance"
	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// Pivot runs an aggregation query. A RegionAll query without a rate uses
// the session rate.
func (s *Session) Pivot(q aggregation.Query) (*aggregation.Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Pivot(s.withRate(q))
}

// Breakdown runs a share-of-total query.
func (s *Session) Breakdown(q aggregation.Query) (*aggregation.Breakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Breakdown(s.withRate(q))
}

func (s *Session) withRate(q aggregation.Query) aggregation.Query {
	if q.Region == models.RegionAll && q.Rate.IsZero() {
		q.Rate = s.rate
	}
	return q
}

// YearSummary returns the monthly balance table for year.
func (s *Session) YearSummary(year int) (*balance.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calc.YearSummary(year, s.rate, s.initial)
}

// CurrentBalance is the initial balance plus every recorded period.
func (s *Session) CurrentBalance() (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calc.Current(s.rate, s.initial)
}

// ForeignBalance returns the foreign account balance and its home value.
func (s *Session) ForeignBalance() (foreign, home decimal.Decimal, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	home, err = s.foreign.HomeEquivalent(s.rate)
	return s.foreign.Balance, home, err
}

// InvestmentSummary totals investments and returns.
func (s *Session) InvestmentSummary() *balance.InvestmentSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return balance.SummarizeInvestments(s.store)
}

// ConversionRate returns the session rate.
func (s *Session) ConversionRate() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate
}

// InitialBalance returns the opening home balance.
func (s *Session) InitialBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initial
}

// Taxonomy returns the category tree as ordered specs.
func (s *Session) Taxonomy() []taxonomy.CategorySpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Spec()
}

// Children lists the child names under path.
func (s *Session) Children(path taxonomy.Path) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Children(path)
}

// Expenses returns copies of the expenses of a record region, optionally
// restricted to a year (0 for all).
func (s *Session) Expenses(region models.Region, year int) []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Expense
	for e := range s.store.Expenses(region).Filter(func(e *models.Expense) bool {
		return year == 0 || e.Date.InYear(year)
	}) {
		out = append(out, *e)
	}
	return out
}

// Count returns the number of records in a collection.
func (s *Session) Count(name ledger.Name) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Len(name)
}

// Years lists the years that have records.
func (s *Session) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Years()
}

// Strategy reports the cascade strategy in use.
func (s *Session) Strategy() string {
	return string(s.cascade.Strategy())
}
