// Package root contains the root command for the application
package root

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/msahsan119/finman/internal/config"
	"github.com/msahsan119/finman/internal/container"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/report"
	"github.com/msahsan119/finman/internal/session"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigFile string
	DataFile   string
	Backend    string
	LogLevel   string
	Format     string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.GetLogger()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "finman",
		Short: "A personal ledger for home and foreign currency spending.",
		Long: `finman keeps a three-level category taxonomy, home and foreign expenses,
income, investments and returns, and reports monthly totals and balances.
Renaming or deleting a category updates every expense filed under it.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	// Flags holds the values of the persistent flags.
	Flags = GlobalFlags{}

	app *container.Container
)

func init() {
	Cmd.PersistentFlags().StringVarP(&Flags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in $HOME/.finman, .finman or .)")
	Cmd.PersistentFlags().StringVarP(&Flags.DataFile, "data", "d", "", "Ledger file or database, overriding data.file / data.sqlite_path")
	Cmd.PersistentFlags().StringVar(&Flags.Backend, "backend", "", "Storage backend: json or sqlite")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level override")
	Cmd.PersistentFlags().StringVarP(&Flags.Format, "format", "f", "text", "Output format: text, json or yaml")
}

func setup(cmd *cobra.Command, args []string) error {
	// PersistentPostRunE is skipped when a command fails
	if err := teardown(cmd, args); err != nil {
		return err
	}
	config.LoadEnv(Log)

	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return err
	}
	if Flags.Backend != "" {
		cfg.Data.Backend = strings.ToLower(Flags.Backend)
	}
	if Flags.DataFile != "" {
		if cfg.Data.Backend == "sqlite" {
			cfg.Data.SQLitePath = Flags.DataFile
		} else {
			cfg.Data.File = Flags.DataFile
		}
	}
	if Flags.LogLevel != "" {
		cfg.Log.Level = Flags.LogLevel
	}

	Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	logging.SetLogger(Log)

	c, err := container.NewContainerWithLogger(cmd.Context(), cfg, Log)
	if err != nil {
		return err
	}
	app = c
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	return err
}

// App returns the container built for the running command.
func App() *container.Container {
	if app == nil {
		panic("root: container used outside of a command run")
	}
	return app
}

// Apply runs a ledger operation through the persisting service and prints
// its change log.
func Apply(cmd *cobra.Command, op func(*session.Session) (session.ChangeLog, error)) error {
	log, err := App().GetService().Apply(cmd.Context(), op)
	if len(log) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), log.String())
	} else if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
	}
	return err
}

// Render writes a report table in the --format output encoding.
func Render(cmd *cobra.Command, t *report.Table) error {
	format, err := report.ParseFormat(Flags.Format)
	if err != nil {
		return err
	}
	out, err := App().GetReports().Render(t, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// ResetFlags restores every flag of cmd and its children to its default
// value, so that one process can execute several command lines.
func ResetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		ResetFlags(c)
	}
}
