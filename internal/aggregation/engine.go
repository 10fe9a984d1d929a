package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/ledgererr"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// Taxonomy is the part of the category tree the engine reads.
type Taxonomy interface {
	Children(path taxonomy.Path) ([]string, error)
}

// Engine computes pivots and series from a ledger store.
type Engine struct {
	tree   Taxonomy
	store  *ledger.Store
	policy AveragePolicy
	logger logging.Logger
}

// NewEngine creates an aggregation engine.
func NewEngine(tree Taxonomy, store *ledger.Store, policy AveragePolicy, logger logging.Logger) *Engine {
	if policy == "" {
		policy = AverageFixed
	}
	return &Engine{tree: tree, store: store, policy: policy, logger: logging.OrDefault(logger)}
}

// Policy returns the configured average policy.
func (e *Engine) Policy() AveragePolicy { return e.policy }

// Pivot builds the 12-row matrix for q. Columns are the children of
// q.Filter in taxonomy order; records whose name at the column level is not
// a current child are left out.
func (e *Engine) Pivot(q Query) (*Matrix, error) {
	columns, err := e.columns(q)
	if err != nil {
		return nil, err
	}
	m := newMatrix(q, columns, e.policy)

	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		colIndex[c] = i
	}
	level := len(q.Filter) + 1

	// foreign sums are converted once per cell
	foreign := make([][]decimal.Decimal, 12)
	for i := range foreign {
		foreign[i] = zeros(len(columns))
	}

	var active [12]bool
	err = e.eachExpense(q.Region, func(rec *models.Expense) {
		if !rec.Date.InYear(q.Year) || !prefixMatches(rec, q.Filter) {
			return
		}
		col, ok := colIndex[rec.Field(level)]
		if !ok {
			return
		}
		mi := int(rec.Date.Month()) - 1
		if q.Region == models.RegionAll && rec.Region == models.RegionForeign {
			foreign[mi][col] = foreign[mi][col].Add(rec.Amount)
		} else {
			m.Rows[mi].Cells[col] = m.Rows[mi].Cells[col].Add(rec.Amount)
		}
		active[mi] = true
		m.Records++
	})
	if err != nil {
		return nil, err
	}

	if q.Region == models.RegionAll {
		for mi := range foreign {
			for c, v := range foreign[mi] {
				if !v.IsZero() {
					m.Rows[mi].Cells[c] = m.Rows[mi].Cells[c].Add(v.Div(q.Rate))
				}
			}
		}
	}

	activeMonths := 0
	for _, a := range active {
		if a {
			activeMonths++
		}
	}
	m.finish(activeMonths)

	e.logger.Debug("Built pivot",
		logging.F(logging.FieldYear, q.Year),
		logging.F(logging.FieldRegion, string(q.Region)),
		logging.F(logging.FieldPath, q.Filter.String()),
		logging.F(logging.FieldCount, m.Records))
	return m, nil
}

// Slice is one wedge of a breakdown.
type Slice struct {
	Label  string
	Amount decimal.Decimal
	Share  decimal.Decimal // percentage of the breakdown total
}

// Breakdown is the distribution of spending across the children of a filter.
type Breakdown struct {
	Year   int
	Month  time.Month
	Region models.Region
	Filter taxonomy.Path
	Slices []Slice
	Total  decimal.Decimal
}

// Breakdown sums the pivot columns for the year, or for q.Month when set,
// dropping empty columns and ordering by amount.
func (e *Engine) Breakdown(q Query) (*Breakdown, error) {
	if q.Month < 0 || q.Month > 12 {
		return nil, fmt.Errorf("month %d out of range", q.Month)
	}
	m, err := e.Pivot(q)
	if err != nil {
		return nil, err
	}
	b := &Breakdown{Year: q.Year, Month: q.Month, Region: q.Region, Filter: q.Filter, Total: decimal.Zero}
	for c, label := range m.Columns {
		amount := m.Total.Cells[c]
		if q.Month != 0 {
			amount = m.Cell(q.Month, c)
		}
		if amount.IsZero() {
			continue
		}
		b.Slices = append(b.Slices, Slice{Label: label, Amount: amount})
		b.Total = b.Total.Add(amount)
	}
	sort.SliceStable(b.Slices, func(i, j int) bool {
		return b.Slices[i].Amount.GreaterThan(b.Slices[j].Amount)
	})
	if !b.Total.IsZero() {
		hundred := decimal.NewFromInt(100)
		for i := range b.Slices {
			b.Slices[i].Share = b.Slices[i].Amount.Mul(hundred).Div(b.Total)
		}
	}
	return b, nil
}

// Series is a value per month, January first.
type Series [12]decimal.Decimal

// Sum adds the twelve values.
func (s Series) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(v)
	}
	return total
}

func newSeries() Series {
	var s Series
	for i := range s {
		s[i] = decimal.Zero
	}
	return s
}

// ExpenseSeries sums every expense of a record region per month, including
// orphans, skipping records whose category is in excluded.
func (e *Engine) ExpenseSeries(year int, region models.Region, excluded []string) (Series, error) {
	if !region.IsRecordRegion() {
		return Series{}, fmt.Errorf("expense series needs a record region, got %q", region)
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, c := range excluded {
		skip[c] = struct{}{}
	}
	s := newSeries()
	for rec := range e.store.Expenses(region).All() {
		if !rec.Date.InYear(year) {
			continue
		}
		if _, ok := skip[rec.Category]; ok {
			continue
		}
		s[rec.Date.Month()-1] = s[rec.Date.Month()-1].Add(rec.Amount)
	}
	return s, nil
}

// IncomeSeries sums income per month.
func (e *Engine) IncomeSeries(year int) Series {
	return monthly(e.store.Income(), year, func(r *models.IncomeEntry) (models.Date, decimal.Decimal) { return r.Date, r.Amount })
}

// InvestmentSeries sums money invested per month.
func (e *Engine) InvestmentSeries(year int) Series {
	return monthly(e.store.Investments(), year, func(r *models.InvestmentEntry) (models.Date, decimal.Decimal) { return r.Date, r.Amount })
}

// ReturnSeries sums investment returns per month.
func (e *Engine) ReturnSeries(year int) Series {
	return monthly(e.store.Returns(), year, func(r *models.ReturnEntry) (models.Date, decimal.Decimal) { return r.Date, r.Amount })
}

// Years lists every year that has at least one record, ascending.
func (e *Engine) Years() []int {
	seen := make(map[int]struct{})
	note := func(d models.Date) { seen[d.Year()] = struct{}{} }
	for rec := range e.store.AllExpenses() {
		note(rec.Date)
	}
	for rec := range e.store.Income().All() {
		note(rec.Date)
	}
	for rec := range e.store.Investments().All() {
		note(rec.Date)
	}
	for rec := range e.store.Returns().All() {
		note(rec.Date)
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func monthly[T ledger.Entry](c *ledger.Collection[T], year int, get func(T) (models.Date, decimal.Decimal)) Series {
	s := newSeries()
	for rec := range c.All() {
		d, amount := get(rec)
		if d.InYear(year) {
			s[d.Month()-1] = s[d.Month()-1].Add(amount)
		}
	}
	return s
}

func (e *Engine) columns(q Query) ([]string, error) {
	switch q.Region {
	case models.RegionHome, models.RegionForeign:
	case models.RegionAll:
		if !q.Rate.IsPositive() {
			return nil, &ledgererr.InvalidRateError{Rate: q.Rate.String()}
		}
	default:
		return nil, fmt.Errorf("unknown region %q", q.Region)
	}
	if len(q.Filter) >= taxonomy.MaxDepth {
		return nil, &ledgererr.UnknownPathError{Path: q.Filter}
	}
	return e.tree.Children(q.Filter)
}

func (e *Engine) eachExpense(region models.Region, fn func(*models.Expense)) error {
	if region == models.RegionAll {
		for rec := range e.store.AllExpenses() {
			fn(rec)
		}
		return nil
	}
	for rec := range e.store.Expenses(region).All() {
		fn(rec)
	}
	return nil
}

func prefixMatches(rec *models.Expense, filter taxonomy.Path) bool {
	for i, name := range filter {
		if rec.Field(i+1) != name {
			return false
		}
	}
	return true
}
