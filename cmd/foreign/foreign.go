// Package foreign handles the foreign currency account
package foreign

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/common"
	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/session"
)

var (
	amount     string
	homeAmount string
	rate       string
)

// Cmd represents the foreign command
var Cmd = &cobra.Command{
	Use:   "foreign",
	Short: "Manage the foreign currency account and conversion rate",
}

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Add money to the foreign account",
	Long: `Add money to the foreign account, either directly in foreign units with
--amount, or as a home amount converted at --rate with --home-amount.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case amount != "" && homeAmount != "":
			return fmt.Errorf("use either --amount or --home-amount, not both")
		case amount != "":
			a, err := common.PositiveAmount(amount)
			if err != nil {
				return err
			}
			return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
				return s.DepositForeign(a)
			})
		case homeAmount != "":
			home, err := common.PositiveAmount(homeAmount)
			if err != nil {
				return err
			}
			r := decimal.Zero
			if rate != "" {
				if r, err = models.ParseAmount(rate); err != nil {
					return err
				}
			}
			return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
				if r.IsZero() {
					r = s.ConversionRate()
				}
				return s.DepositForeignFromHome(home, r)
			})
		default:
			return fmt.Errorf("--amount or --home-amount is required")
		}
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate [value]",
	Short: "Show or set the conversion rate (foreign units per home unit)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), root.App().GetSession().ConversionRate().String())
			return nil
		}
		r, err := models.ParseAmount(args[0])
		if err != nil {
			return err
		}
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.SetConversionRate(r)
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the foreign account balance and its home value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := root.App().GetConfig()
		foreign, home, err := root.App().GetSession().ForeignBalance()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %s)\n",
			foreign.StringFixed(int32(cfg.Aggregation.ForeignPlaces)), cfg.Ledger.ForeignCurrency,
			home.StringFixed(int32(cfg.Aggregation.HomePlaces)), cfg.Ledger.HomeCurrency)
		return nil
	},
}

func init() {
	depositCmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount in foreign units")
	depositCmd.Flags().StringVar(&homeAmount, "home-amount", "", "Amount in home units to convert")
	depositCmd.Flags().StringVar(&rate, "rate", "", "Conversion rate for --home-amount (default: session rate)")

	Cmd.AddCommand(depositCmd, rateCmd, balanceCmd)
}
