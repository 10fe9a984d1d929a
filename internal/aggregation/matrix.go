// Package aggregation turns expense records into month-by-child pivot
// matrices and monthly series for a calendar year.
package aggregation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// AveragePolicy selects the divisor of the Average row.
type AveragePolicy string

const (
	// AverageFixed divides by 12 regardless of activity.
	AverageFixed AveragePolicy = "fixed"
	// AverageActive divides by the number of months with at least one
	// contributing record.
	AverageActive AveragePolicy = "active"
)

// ParseAveragePolicy validates a configured policy name.
func ParseAveragePolicy(s string) (AveragePolicy, error) {
	switch AveragePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case AverageFixed, "":
		return AverageFixed, nil
	case AverageActive:
		return AverageActive, nil
	default:
		return "", fmt.Errorf("unknown average policy %q (want fixed or active)", s)
	}
}

// Query parameterizes a pivot or breakdown.
type Query struct {
	Year   int
	Region models.Region
	// Filter selects the parent whose children become columns. Empty means
	// top-level categories.
	Filter taxonomy.Path
	// Month limits a breakdown to one month; zero means the whole year.
	Month time.Month
	// Rate converts foreign amounts for RegionAll.
	Rate decimal.Decimal
}

// Row is one line of a matrix.
type Row struct {
	Label string
	Month time.Month
	Cells []decimal.Decimal
	Total decimal.Decimal
}

// Rounded formats the cells and total with the given number of places.
func (r Row) Rounded(places int32) []string {
	out := make([]string, 0, len(r.Cells)+1)
	for _, c := range r.Cells {
		out = append(out, c.StringFixed(places))
	}
	return append(out, r.Total.StringFixed(places))
}

// Matrix is a 12-row pivot of expense totals. Values are exact; rounding
// happens only when formatting.
type Matrix struct {
	Year    int
	Region  models.Region
	Filter  taxonomy.Path
	Columns []string
	Rows    []Row
	Total   Row
	Average Row
	Policy  AveragePolicy
	Divisor int
	// Records counts the records that contributed to some cell.
	Records int
}

// Cell returns the value at month and column index.
func (m *Matrix) Cell(month time.Month, col int) decimal.Decimal {
	return m.Rows[month-1].Cells[col]
}

// Column returns the index of the named column, or -1.
func (m *Matrix) Column(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// GrandTotal is the sum of every cell.
func (m *Matrix) GrandTotal() decimal.Decimal {
	return m.Total.Total
}

// Header returns the column labels including the leading month column and
// trailing total column.
func (m *Matrix) Header() []string {
	h := make([]string, 0, len(m.Columns)+2)
	h = append(h, "Month")
	h = append(h, m.Columns...)
	return append(h, "Total")
}

func newMatrix(q Query, columns []string, policy AveragePolicy) *Matrix {
	m := &Matrix{
		Year:    q.Year,
		Region:  q.Region,
		Filter:  q.Filter,
		Columns: columns,
		Rows:    make([]Row, 12),
		Policy:  policy,
	}
	for i := range m.Rows {
		month := time.Month(i + 1)
		m.Rows[i] = Row{Label: month.String(), Month: month, Cells: zeros(len(columns)), Total: decimal.Zero}
	}
	return m
}

// finish computes row totals, the Total row and the Average row.
func (m *Matrix) finish(active int) {
	m.Total = Row{Label: "Total", Cells: zeros(len(m.Columns)), Total: decimal.Zero}
	for i := range m.Rows {
		row := &m.Rows[i]
		row.Total = decimal.Zero
		for c, v := range row.Cells {
			row.Total = row.Total.Add(v)
			m.Total.Cells[c] = m.Total.Cells[c].Add(v)
		}
		m.Total.Total = m.Total.Total.Add(row.Total)
	}

	m.Divisor = 12
	if m.Policy == AverageActive {
		m.Divisor = active
	}
	m.Average = Row{Label: "Average", Cells: zeros(len(m.Columns)), Total: decimal.Zero}
	if m.Divisor == 0 {
		return
	}
	d := decimal.NewFromInt(int64(m.Divisor))
	for c, v := range m.Total.Cells {
		m.Average.Cells[c] = v.Div(d)
	}
	m.Average.Total = m.Total.Total.Div(d)
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}
