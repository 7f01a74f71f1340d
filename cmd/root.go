// Package cmd wires the crmdash command line: the TUI by default plus the
// headless list, export, watch, seed and migrate commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"crmdash/internal/config"
	"crmdash/internal/logging"
	"crmdash/internal/util"
)

var cfgFile string

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crmdash",
		Short: "crmdash - terminal CRM dashboard",
		Long: `crmdash shows customers, leads, escalations and campaigns from an n8n
webhook backend or a SQL database, with search, filters, paging, CSV export
and auto refresh.

Without a subcommand it starts the interactive dashboard.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help, completion and setup
			switch cmd.Name() {
			case "help", "completion", "__complete", "onboarding":
				return nil
			}
			return loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./crmdash.yaml or ~/.crmdash/config.yaml)")
	flags.String("source", "", "Data source (api|sqlite|postgres)")
	flags.String("api-url", "", "n8n webhook base URL")
	flags.String("api-token", "", "Bearer token for the webhook API")
	flags.String("db", "", "Path to SQLite database")
	flags.String("db-url", "", "PostgreSQL connection URL")
	flags.String("role", "", "Dashboard role (admin|customer_service|marketing)")
	flags.Int("refresh-ms", 0, "Auto refresh interval in milliseconds (0 disables)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (console|json)")
	flags.String("export-dir", "", "Directory for CSV exports")
	flags.String("metrics-addr", "", "Address for the prometheus /metrics listener")

	_ = rootCmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.SourceAPI, config.SourceSQLite, config.SourcePostgres}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("role", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"admin", "customer_service", "marketing"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newOnboardingCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	rootCmd := NewRootCmd(version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	util.SetLocale(language.Make(cfg.UI.Locale))
	cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
	return nil
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// stderrLogger is the logger of the headless commands.
func stderrLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Log, os.Stderr)
}
