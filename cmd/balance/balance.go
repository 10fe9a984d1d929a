// Package balance handles balance commands
package balance

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/common"
	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/session"
)

var year int

// Cmd represents the balance command
var Cmd = &cobra.Command{
	Use:   "balance",
	Short: "Show and adjust the home balance",
}

var setInitialCmd = &cobra.Command{
	Use:   "set-initial <amount>",
	Short: "Set the opening home balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := models.ParseAmount(args[0])
		if err != nil {
			return err
		}
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.SetInitialBalance(a), nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the monthly balance table of a year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		y, err := common.Year(year)
		if err != nil {
			return err
		}
		summary, err := root.App().GetSession().YearSummary(y)
		if err != nil {
			return err
		}
		return root.Render(cmd, root.App().GetReports().SummaryTable(summary))
	},
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current home balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := root.App().GetConfig()
		b, err := root.App().GetSession().CurrentBalance()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", b.StringFixed(int32(cfg.Aggregation.HomePlaces)), cfg.Ledger.HomeCurrency)
		return nil
	},
}

func init() {
	showCmd.Flags().IntVarP(&year, "year", "y", 0, "Year (default: current year)")

	Cmd.AddCommand(setInitialCmd, showCmd, currentCmd)
}
