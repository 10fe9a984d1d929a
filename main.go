package main

import (
	"os"

	"github.com/msahsan119/finman/cmd/balance"
	"github.com/msahsan119/finman/cmd/category"
	"github.com/msahsan119/finman/cmd/expense"
	"github.com/msahsan119/finman/cmd/foreign"
	"github.com/msahsan119/finman/cmd/income"
	"github.com/msahsan119/finman/cmd/invest"
	"github.com/msahsan119/finman/cmd/report"
	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/cmd/transfer"
)

func init() {
	root.Cmd.AddCommand(category.Cmd)
	root.Cmd.AddCommand(expense.Cmd)
	root.Cmd.AddCommand(income.Cmd)
	root.Cmd.AddCommand(invest.Cmd)
	root.Cmd.AddCommand(foreign.Cmd)
	root.Cmd.AddCommand(balance.Cmd)
	root.Cmd.AddCommand(report.Cmd)
	root.Cmd.AddCommand(transfer.ExportCmd)
	root.Cmd.AddCommand(transfer.ImportCmd)
}

func main() {
	// cobra has already printed the error
	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
