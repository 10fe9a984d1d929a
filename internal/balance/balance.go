// Package balance combines income, expenses and investment flows from both
// currency regions into a single home-currency balance.
package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/ledgererr"
	"github.com/msahsan119/finman/internal/models"
)

// Inputs are the totals of one period.
type Inputs struct {
	Income         decimal.Decimal
	ExpenseHome    decimal.Decimal // savings categories already excluded
	Invested       decimal.Decimal
	Returns        decimal.Decimal
	ExpenseForeign decimal.Decimal // native foreign units
}

// NetInvestment is returns minus money invested.
func (in Inputs) NetInvestment() decimal.Decimal {
	return in.Returns.Sub(in.Invested)
}

// Period computes
//
//	income - expenseHome + (returns - invested) - expenseForeign/rate
func Period(in Inputs, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, &ledgererr.InvalidRateError{Rate: rate.String()}
	}
	return in.Income.
		Sub(in.ExpenseHome).
		Add(in.NetInvestment()).
		Sub(in.ExpenseForeign.Div(rate)), nil
}

// Running returns initial plus the cumulative sum of periods.
func Running(initial decimal.Decimal, periods []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(periods))
	acc := initial
	for i, p := range periods {
		acc = acc.Add(p)
		out[i] = acc
	}
	return out
}

// SummaryRow is one month (or the total/average) of a year summary.
type SummaryRow struct {
	Label          string
	Month          time.Month
	Income         decimal.Decimal
	ExpenseHome    decimal.Decimal
	NetInvestment  decimal.Decimal
	ExpenseForeign decimal.Decimal
	Balance        decimal.Decimal
	Running        decimal.Decimal
}

// Summary is the 12-month balance table of a year.
type Summary struct {
	Year    int
	Rate    decimal.Decimal
	Initial decimal.Decimal
	Rows    []SummaryRow
	// Total sums the months; its Balance also includes the initial balance.
	Total   SummaryRow
	Average SummaryRow
	Divisor int
}

// Calculator reads monthly series from the aggregation engine.
type Calculator struct {
	agg     *aggregation.Engine
	savings []string
}

// NewCalculator creates a calculator. Expenses filed under the savings
// categories are left out of the home expense total.
func NewCalculator(agg *aggregation.Engine, savings []string) *Calculator {
	return &Calculator{agg: agg, savings: append([]string(nil), savings...)}
}

// SavingsCategories returns the excluded categories.
func (c *Calculator) SavingsCategories() []string {
	return append([]string(nil), c.savings...)
}

// Monthly returns the inputs of each month of year.
func (c *Calculator) Monthly(year int) ([12]Inputs, error) {
	var out [12]Inputs
	home, err := c.agg.ExpenseSeries(year, models.RegionHome, c.savings)
	if err != nil {
		return out, err
	}
	foreign, err := c.agg.ExpenseSeries(year, models.RegionForeign, nil)
	if err != nil {
		return out, err
	}
	income := c.agg.IncomeSeries(year)
	invested := c.agg.InvestmentSeries(year)
	returns := c.agg.ReturnSeries(year)
	for i := range out {
		out[i] = Inputs{
			Income:         income[i],
			ExpenseHome:    home[i],
			Invested:       invested[i],
			Returns:        returns[i],
			ExpenseForeign: foreign[i],
		}
	}
	return out, nil
}

// YearSummary builds the monthly balance table. The running column starts
// from initial at the beginning of January of year.
func (c *Calculator) YearSummary(year int, rate, initial decimal.Decimal) (*Summary, error) {
	if !rate.IsPositive() {
		return nil, &ledgererr.InvalidRateError{Rate: rate.String()}
	}
	inputs, err := c.Monthly(year)
	if err != nil {
		return nil, err
	}

	s := &Summary{Year: year, Rate: rate, Initial: initial, Rows: make([]SummaryRow, 12)}
	periods := make([]decimal.Decimal, 12)
	active := 0
	for i, in := range inputs {
		p, err := Period(in, rate)
		if err != nil {
			return nil, err
		}
		periods[i] = p
		month := time.Month(i + 1)
		s.Rows[i] = SummaryRow{
			Label:          month.String(),
			Month:          month,
			Income:         in.Income,
			ExpenseHome:    in.ExpenseHome,
			NetInvestment:  in.NetInvestment(),
			ExpenseForeign: in.ExpenseForeign,
			Balance:        p,
		}
		if !in.Income.IsZero() || !in.ExpenseHome.IsZero() || !in.Invested.IsZero() ||
			!in.Returns.IsZero() || !in.ExpenseForeign.IsZero() {
			active++
		}
	}
	for i, r := range Running(initial, periods) {
		s.Rows[i].Running = r
	}

	total := SummaryRow{Label: "Total"}
	for _, r := range s.Rows {
		total.Income = total.Income.Add(r.Income)
		total.ExpenseHome = total.ExpenseHome.Add(r.ExpenseHome)
		total.NetInvestment = total.NetInvestment.Add(r.NetInvestment)
		total.ExpenseForeign = total.ExpenseForeign.Add(r.ExpenseForeign)
		total.Balance = total.Balance.Add(r.Balance)
	}
	s.Average = average(total, c.divisor(active))
	s.Divisor = c.divisor(active)
	total.Balance = total.Balance.Add(initial)
	total.Running = s.Rows[11].Running
	s.Total = total
	return s, nil
}

func (c *Calculator) divisor(active int) int {
	if c.agg.Policy() == aggregation.AverageActive {
		return active
	}
	return 12
}

func average(total SummaryRow, divisor int) SummaryRow {
	avg := SummaryRow{Label: "Average"}
	if divisor == 0 {
		return avg
	}
	n := decimal.NewFromInt(int64(divisor))
	avg.Income = total.Income.Div(n)
	avg.ExpenseHome = total.ExpenseHome.Div(n)
	avg.NetInvestment = total.NetInvestment.Div(n)
	avg.ExpenseForeign = total.ExpenseForeign.Div(n)
	avg.Balance = total.Balance.Div(n)
	return avg
}

// Current returns initial plus the period balance of every recorded year.
func (c *Calculator) Current(rate, initial decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, &ledgererr.InvalidRateError{Rate: rate.String()}
	}
	balance := initial
	for _, year := range c.agg.Years() {
		inputs, err := c.Monthly(year)
		if err != nil {
			return decimal.Zero, err
		}
		for _, in := range inputs {
			p, err := Period(in, rate)
			if err != nil {
				return decimal.Zero, err
			}
			balance = balance.Add(p)
		}
	}
	return balance, nil
}
