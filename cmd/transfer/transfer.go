// Package transfer handles CSV export and import of the ledger
package transfer

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/session"
)

// ExportCmd writes every record to a CSV file
var ExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export every record to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := root.App().GetSession().Snapshot()
		n, err := root.App().GetExporter().WriteFile(args[0], snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", n, args[0])
		return nil
	},
}

// ImportCmd merges the records of a CSV file into the ledger
var ImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge records from a CSV export into the ledger",
	Long: `Merge records from a CSV export into the ledger. Expenses are attached to
the taxonomy by name. Rows that cannot be parsed are skipped and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, badRows, err := root.App().GetExporter().ReadFile(args[0])
		if err != nil {
			return err
		}
		var rejected int
		err = root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			log, skipped := s.Merge(snap)
			rejected = skipped
			return log, nil
		})
		if err != nil {
			return err
		}
		if skipped := badRows + rejected; skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d rows\n", skipped)
		}
		return nil
	},
}
