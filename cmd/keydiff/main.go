// Package main provides the entry point for the keydiff dataset comparison tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TFMV/keydiff/config"
	"github.com/TFMV/keydiff/logger"
	"github.com/TFMV/keydiff/version"
	"github.com/spf13/cobra"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	global := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "keydiff",
		Short: "keydiff compares two tabular datasets on key columns",
		Long: `keydiff aligns two datasets on one or more key columns and reports
rows found in only one of them and cell values that differ between rows
sharing a key. Inputs may be CSV, Parquet, Arrow IPC, Excel workbooks or
DuckDB queries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.ResetLogger()
			logger.SetLogPath(global.LogFile)
			if global.LogLevel != "" {
				if err := logger.SetLevel(global.LogLevel); err != nil {
					return fmt.Errorf("invalid --log-level: %w", err)
				}
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&global.ConfigPath, "config", "c", "", "YAML job file; flags override its values")
	flags.StringVar(&global.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&global.LogFile, "log-file", "keydiff.log", "Log file path; empty disables file logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of keydiff",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})

	rootCmd.AddCommand(newDiffCommand(global))
	rootCmd.AddCommand(newColumnsCommand(global))
	rootCmd.AddCommand(newSheetsCommand())
	rootCmd.AddCommand(newSchemaCommand(global))
	rootCmd.AddCommand(newServeCommand(global))

	return rootCmd
}

// loadConfig returns the job file named by --config, or the defaults.
// The log level from the file applies unless --log-level was given.
func loadConfig(global *globalOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if global.ConfigPath != "" {
		cfg, err = config.LoadConfig(global.ConfigPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if global.LogLevel == "" && cfg.LogLevel != "" {
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
	}
	return cfg, nil
}
