// Package invest handles investment commands
package invest

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/common"
	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/session"
)

var (
	amount      string
	date        string
	description string
	kind        string
	partyName   string
	partyAddr   string
)

// Cmd represents the invest command
var Cmd = &cobra.Command{
	Use:   "invest",
	Short: "Record investments and their returns",
}

var addCmd = &cobra.Command{
	Use:   "add <category>",
	Short: "Record money moved into an investment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, d, err := amountAndDate()
		if err != nil {
			return err
		}
		entry := &models.InvestmentEntry{
			Category:            args[0],
			Amount:              a,
			Date:                d,
			Description:         description,
			CounterpartyName:    partyName,
			CounterpartyAddress: partyAddr,
		}
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.AddInvestment(entry)
		})
	},
}

var returnCmd = &cobra.Command{
	Use:   "return <category>",
	Short: "Record money received back from an investment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, d, err := amountAndDate()
		if err != nil {
			return err
		}
		entry := &models.ReturnEntry{
			Category:            args[0],
			Kind:                kind,
			Amount:              a,
			Date:                d,
			Description:         description,
			CounterpartyName:    partyName,
			CounterpartyAddress: partyAddr,
		}
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.AddReturn(entry)
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show invested and returned totals per category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary := root.App().GetSession().InvestmentSummary()
		return root.Render(cmd, root.App().GetReports().InvestmentTable(summary))
	},
}

func amountAndDate() (a decimal.Decimal, d models.Date, err error) {
	if a, err = common.PositiveAmount(amount); err != nil {
		return a, d, err
	}
	d, err = common.Date(date)
	return a, d, err
}

func init() {
	for _, c := range []*cobra.Command{addCmd, returnCmd} {
		c.Flags().StringVarP(&amount, "amount", "a", "", "Amount in the home currency")
		c.Flags().StringVarP(&date, "date", "t", "", "Date (default: today)")
		c.Flags().StringVar(&description, "description", "", "Free-form description")
		c.Flags().StringVar(&partyName, "counterparty", "", "Counterparty name")
		c.Flags().StringVar(&partyAddr, "counterparty-address", "", "Counterparty address")
		_ = c.MarkFlagRequired("amount")
	}
	returnCmd.Flags().StringVar(&kind, "kind", "", "Kind of return, such as Dividend or Interest")

	Cmd.AddCommand(addCmd, returnCmd, summaryCmd)
}
