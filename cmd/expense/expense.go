// Package expense handles expense commands
package expense

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/common"
	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/report"
	"github.com/msahsan119/finman/internal/session"
)

var (
	region         string
	subcategory    string
	subsubcategory string
	amount         string
	date           string
	location       string
	year           int
	month          string
)

// Cmd represents the expense command
var Cmd = &cobra.Command{
	Use:   "expense",
	Short: "Record and list expenses",
}

var addCmd = &cobra.Command{
	Use:   "add <category>",
	Short: "Record an expense",
	Long: `Record an expense in the home or foreign region. Foreign expenses are paid
from the foreign account balance.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := models.ParseRegion(region)
		if err != nil {
			return err
		}
		if !r.IsRecordRegion() {
			return fmt.Errorf("expenses are recorded as home or foreign, not %s", r)
		}
		a, err := common.PositiveAmount(amount)
		if err != nil {
			return err
		}
		d, err := common.Date(date)
		if err != nil {
			return err
		}

		e := &models.Expense{
			Region:         r,
			Category:       args[0],
			Subcategory:    subcategory,
			Subsubcategory: subsubcategory,
			Amount:         a,
			Date:           d,
			Location:       location,
		}
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.AddExpense(e)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <category>",
	Short: "Delete expenses of a region",
	Long: `Delete the expenses of one region filed under a category. The optional
--sub, --subsub, --date, --year and --month flags narrow the match. Deleting a
foreign expense does not refund the foreign account.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := models.ParseRegion(region)
		if err != nil {
			return err
		}
		name, err := ledger.ExpenseCollection(r)
		if err != nil {
			return fmt.Errorf("delete home or foreign expenses, not %s", r)
		}
		m, err := common.Month(month)
		if err != nil {
			return err
		}
		if year != 0 {
			if _, err := common.Year(year); err != nil {
				return err
			}
		}
		var day models.Date
		if strings.TrimSpace(date) != "" {
			if day, err = models.ParseDate(date); err != nil {
				return err
			}
		}

		category := strings.TrimSpace(args[0])
		sub := strings.TrimSpace(subcategory)
		subsub := strings.TrimSpace(subsubcategory)
		match := func(rec ledger.Record) bool {
			e := rec.(*models.Expense)
			switch {
			case e.Category != category:
				return false
			case sub != "" && e.Subcategory != sub:
				return false
			case subsub != "" && e.Subsubcategory != subsub:
				return false
			case !day.IsZero() && !e.Date.Equal(day.Time):
				return false
			case year != 0 && e.Date.Year() != year:
				return false
			case m != 0 && e.Date.Month() != m:
				return false
			}
			return true
		}
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.RemoveRecords(name, match), nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses of a region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := models.ParseRegion(region)
		if err != nil {
			return err
		}
		if !r.IsRecordRegion() {
			return fmt.Errorf("list home or foreign expenses, not %s", r)
		}

		t := &report.Table{
			Title:   fmt.Sprintf("%s expenses", r),
			Columns: []string{"Date", "Category", "Subcategory", "Sub-subcategory", "Amount", "Location"},
		}
		for _, e := range root.App().GetSession().Expenses(r, year) {
			t.Rows = append(t.Rows, []string{
				e.Date.String(), e.Category, e.Subcategory, e.Subsubcategory, e.Amount.String(), e.Location,
			})
		}
		return root.Render(cmd, t)
	},
}

func init() {
	addCmd.Flags().StringVarP(&region, "region", "r", "home", "Region: home or foreign")
	addCmd.Flags().StringVarP(&subcategory, "sub", "s", "", "Subcategory")
	addCmd.Flags().StringVar(&subsubcategory, "subsub", "", "Sub-subcategory")
	addCmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount in the region currency")
	addCmd.Flags().StringVarP(&date, "date", "t", "", "Date (default: today)")
	addCmd.Flags().StringVarP(&location, "location", "l", "", "Where the money was spent")
	_ = addCmd.MarkFlagRequired("amount")

	deleteCmd.Flags().StringVarP(&region, "region", "r", "home", "Region: home or foreign")
	deleteCmd.Flags().StringVarP(&subcategory, "sub", "s", "", "Only this subcategory")
	deleteCmd.Flags().StringVar(&subsubcategory, "subsub", "", "Only this sub-subcategory")
	deleteCmd.Flags().StringVarP(&date, "date", "t", "", "Only this date")
	deleteCmd.Flags().IntVarP(&year, "year", "y", 0, "Only this year")
	deleteCmd.Flags().StringVarP(&month, "month", "m", "", "Only this month")

	listCmd.Flags().StringVarP(&region, "region", "r", "home", "Region: home or foreign")
	listCmd.Flags().IntVarP(&year, "year", "y", 0, "Only this year (default: all years)")

	Cmd.AddCommand(addCmd, deleteCmd, listCmd)
}
