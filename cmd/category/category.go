// Package category handles taxonomy commands
package category

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msahsan119/finman/cmd/root"
	"github.com/msahsan119/finman/internal/session"
	"github.com/msahsan119/finman/internal/taxonomy"
)

var (
	newName  string
	asTree   bool
	seedFile string
)

// Cmd represents the category command
var Cmd = &cobra.Command{
	Use:   "category",
	Short: "Manage the category taxonomy",
	Long: `Add, rename, delete and list categories, subcategories and sub-subcategories.
A path is given as up to three arguments: category [subcategory [sub-subcategory]].`,
}

var addCmd = &cobra.Command{
	Use:   "add <category> [subcategory] [sub-subcategory]",
	Short: "Add a category, subcategory or sub-subcategory",
	Args:  cobra.RangeArgs(1, taxonomy.MaxDepth),
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.AddNode(taxonomy.NewPath(args...))
		})
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <category> [subcategory] [sub-subcategory] --to <name>",
	Short: "Rename a node and every expense filed under it",
	Args:  cobra.RangeArgs(1, taxonomy.MaxDepth),
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.Rename(taxonomy.NewPath(args...), newName)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <category> [subcategory] [sub-subcategory]",
	Short: "Delete a node, its descendants and every expense filed under them",
	Args:  cobra.RangeArgs(1, taxonomy.MaxDepth),
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.Apply(cmd, func(s *session.Session) (session.ChangeLog, error) {
			return s.Delete(taxonomy.NewPath(args...))
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list [category] [subcategory]",
	Short: "List the taxonomy, or the children of a node",
	Args:  cobra.MaximumNArgs(taxonomy.MaxDepth - 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := root.App().GetSession()
		if len(args) > 0 {
			children, err := sess.Children(taxonomy.NewPath(args...))
			if err != nil {
				return err
			}
			for _, c := range children {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		}

		reports := root.App().GetReports()
		if asTree {
			fmt.Fprint(cmd.OutOrStdout(), reports.TaxonomyTree(sess.Taxonomy()))
			return nil
		}
		return root.Render(cmd, reports.TaxonomyTable(sess.Taxonomy()))
	},
}

var seedCmd = &cobra.Command{
	Use:   "export-seed",
	Short: "Write the taxonomy to the YAML seed file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := root.App().GetSeedFile()
		if seedFile != "" {
			seed.Filename = seedFile
		}
		path, err := seed.Save(root.App().GetSession().Taxonomy())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Taxonomy written to %s\n", path)
		return nil
	},
}

func init() {
	renameCmd.Flags().StringVar(&newName, "to", "", "New name")
	_ = renameCmd.MarkFlagRequired("to")
	listCmd.Flags().BoolVar(&asTree, "tree", false, "Draw the taxonomy as a tree")
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Seed file (default: ledger.taxonomy_seed)")

	Cmd.AddCommand(addCmd, renameCmd, deleteCmd, listCmd, seedCmd)
}
