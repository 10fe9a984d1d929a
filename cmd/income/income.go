// Package income handles income commands
package income

import (
	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/common"
	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/session"
)

var (
	amount string
	date   string
)

// Cmd represents the income command
var Cmd = &cobra.Command{
	Use:   "income",
	Short: "Record income",
}

var addCmd = &cobra.Command{
	Use:   "add <source>",
	Short: "Record money received in the home currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.PositiveAmount(amount)
		if err != nil {
			return err
		}
		d, err := common.Date(date)
		if err != nil {
			return err
		}
		entry := &models.IncomeEntry{Source: args[0], Amount: a, Date: d}
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.AddIncome(entry)
		})
	},
}

func init() {
	addCmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount")
	addCmd.Flags().StringVarP(&date, "date", "t", "", "Date (default: today)")
	_ = addCmd.MarkFlagRequired("amount")

	Cmd.AddCommand(addCmd)
}
