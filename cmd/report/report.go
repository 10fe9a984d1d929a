// Package report handles the aggregation report commands
package report

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/common"
	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

var (
	year   int
	region string
	rate   string
	month  string
)

// Cmd represents the report command
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Monthly expense reports",
}

var pivotCmd = &cobra.Command{
	Use:   "pivot [category] [subcategory]",
	Short: "Month by category totals with total and average rows",
	Long: `Without arguments the columns are the top-level categories. With a category
the columns are its subcategories, and with a subcategory its sub-subcategories.`,
	Args: cobra.MaximumNArgs(taxonomy.MaxDepth - 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := query(args)
		if err != nil {
			return err
		}
		m, err := root.App().GetSession().Pivot(q)
		if err != nil {
			return err
		}
		return root.Render(cmd, root.App().GetReports().MatrixTable(m))
	},
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown [category] [subcategory]",
	Short: "Share of each category in the total of a month or year",
	Args:  cobra.MaximumNArgs(taxonomy.MaxDepth - 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := query(args)
		if err != nil {
			return err
		}
		if q.Month, err = common.Month(month); err != nil {
			return err
		}
		b, err := root.App().GetSession().Breakdown(q)
		if err != nil {
			return err
		}
		return root.Render(cmd, root.App().GetReports().BreakdownTable(b))
	},
}

func query(args []string) (aggregation.Query, error) {
	var q aggregation.Query
	var err error
	if q.Year, err = common.Year(year); err != nil {
		return q, err
	}
	if q.Region, err = models.ParseRegion(region); err != nil {
		return q, err
	}
	q.Filter = taxonomy.NewPath(args...)
	if rate != "" {
		if q.Rate, err = decimal.NewFromString(rate); err != nil {
			return q, err
		}
	}
	return q, nil
}

func init() {
	for _, c := range []*cobra.Command{pivotCmd, breakdownCmd} {
		c.Flags().IntVarP(&year, "year", "y", 0, "Year (default: current year)")
		c.Flags().StringVarP(&region, "region", "r", "home", "Region: home, foreign or all")
		c.Flags().StringVar(&rate, "rate", "", "Conversion rate for --region all (default: session rate)")
	}
	breakdownCmd.Flags().StringVarP(&month, "month", "m", "", "Month, by number or name (default: whole year)")

	Cmd.AddCommand(pivotCmd, breakdownCmd)
}
