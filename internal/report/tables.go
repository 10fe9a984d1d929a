package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/balance"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

func (g *Generator) places(region models.Region) int32 {
	if region == models.RegionForeign {
		return g.foreignPlaces
	}
	return g.homePlaces
}

// MatrixTable lays out a pivot: one row per month, then Total and Average.
func (g *Generator) MatrixTable(m *aggregation.Matrix) *Table {
	places := g.places(m.Region)
	scope := "All categories"
	if len(m.Filter) > 0 {
		scope = m.Filter.String()
	}
	t := &Table{
		Title:   fmt.Sprintf("%d %s expenses: %s", m.Year, m.Region, scope),
		Columns: m.Header(),
	}
	for _, row := range m.Rows {
		t.Rows = append(t.Rows, matrixLine(row, places))
	}
	t.Footer = [][]string{
		matrixLine(m.Total, places),
		matrixLine(m.Average, places),
	}
	return t
}

func matrixLine(r aggregation.Row, places int32) []string {
	return append([]string{r.Label}, r.Rounded(places)...)
}

// SummaryTable lays out the monthly balance of a year.
func (g *Generator) SummaryTable(s *balance.Summary) *Table {
	p := g.homePlaces
	t := &Table{
		Title: fmt.Sprintf("%d balance (initial %s, rate %s)", s.Year, s.Initial.StringFixed(p), s.Rate.String()),
		Columns: []string{
			"Month", "Income", "Expenses (home)", "Net investment",
			"Expenses (foreign)", "Balance", "Running",
		},
	}
	for _, r := range s.Rows {
		t.Rows = append(t.Rows, summaryLine(r, p, g.foreignPlaces, true))
	}
	t.Footer = [][]string{
		summaryLine(s.Total, p, g.foreignPlaces, false),
		summaryLine(s.Average, p, g.foreignPlaces, false),
	}
	return t
}

func summaryLine(r balance.SummaryRow, home, foreign int32, running bool) []string {
	last := ""
	if running {
		last = r.Running.StringFixed(home)
	}
	return []string{
		r.Label,
		r.Income.StringFixed(home),
		r.ExpenseHome.StringFixed(home),
		r.NetInvestment.StringFixed(home),
		r.ExpenseForeign.StringFixed(foreign),
		r.Balance.StringFixed(home),
		last,
	}
}

// BreakdownTable lists the shares of a breakdown, largest first.
func (g *Generator) BreakdownTable(b *aggregation.Breakdown) *Table {
	places := g.places(b.Region)
	period := fmt.Sprintf("%d", b.Year)
	if b.Month != 0 {
		period = fmt.Sprintf("%s %d", b.Month, b.Year)
	}
	scope := "All categories"
	if len(b.Filter) > 0 {
		scope = b.Filter.String()
	}
	t := &Table{
		Title:   fmt.Sprintf("%s %s breakdown: %s", period, b.Region, scope),
		Columns: []string{"Name", "Amount", "Share %"},
	}
	for _, s := range b.Slices {
		t.Rows = append(t.Rows, []string{s.Label, s.Amount.StringFixed(places), s.Share.StringFixed(1)})
	}
	t.Footer = [][]string{{"Total", b.Total.StringFixed(places), percent(b.Total)}}
	return t
}

func percent(total decimal.Decimal) string {
	if total.IsZero() {
		return "0.0"
	}
	return "100.0"
}

// InvestmentTable lists invested and returned amounts per category.
func (g *Generator) InvestmentTable(s *balance.InvestmentSummary) *Table {
	p := g.homePlaces
	t := &Table{
		Title:   "Investments",
		Columns: []string{"Category", "Invested", "Returns", "Net"},
	}
	for _, f := range s.ByCategory {
		t.Rows = append(t.Rows, []string{f.Category, f.Invested.StringFixed(p), f.Returns.StringFixed(p), f.Net().StringFixed(p)})
	}
	t.Footer = [][]string{{"Total", s.Invested.StringFixed(p), s.Returns.StringFixed(p), s.NetProfit.StringFixed(p)}}
	return t
}

// TaxonomyTable lists every node path, one per row.
func (g *Generator) TaxonomyTable(specs []taxonomy.CategorySpec) *Table {
	t := &Table{Title: "Categories", Columns: []string{"Category", "Subcategory", "Sub-subcategory"}}
	for _, c := range specs {
		t.Rows = append(t.Rows, []string{c.Name, "", ""})
		for _, s := range c.Subcategories {
			t.Rows = append(t.Rows, []string{c.Name, s.Name, ""})
			for _, item := range s.Items {
				t.Rows = append(t.Rows, []string{c.Name, s.Name, item})
			}
		}
	}
	return t
}

// TaxonomyTree draws the category hierarchy.
func (g *Generator) TaxonomyTree(specs []taxonomy.CategorySpec) string {
	root := tree.New().Root(g.title.Render("Categories"))
	for _, c := range specs {
		if len(c.Subcategories) == 0 {
			root.Child(c.Name)
			continue
		}
		cat := tree.Root(c.Name)
		for _, s := range c.Subcategories {
			if len(s.Items) == 0 {
				cat.Child(s.Name)
				continue
			}
			sub := tree.Root(s.Name)
			for _, item := range s.Items {
				sub.Child(item)
			}
			cat.Child(sub)
		}
		root.Child(cat)
	}
	return strings.TrimRight(root.String(), "\n") + "\n"
}
