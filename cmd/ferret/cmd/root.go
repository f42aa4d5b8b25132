// Package cmd provides the CLI commands for ferret.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferret-go/ferret/internal/config"
	"github.com/ferret-go/ferret/internal/logging"
)

// NewRootCmd creates the root command for the ferret CLI.
func NewRootCmd() *cobra.Command {
	var configDir string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "ferret",
		Short: "Document indexing and ranked search",
		Long: `Ferret indexes documents and answers ranked queries over them.

Documents are stored under the index directory; searches score with
tf-idf and cosine normalization.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing .ferret.yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logCfg := logging.Config{
			Level:         cfg.Logging.Level,
			FilePath:      cfg.Logging.File,
			WriteToStderr: cfg.Logging.File == "",
		}
		log, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		slog.SetDefault(log)
		cmd.SetContext(withConfig(cmd.Context(), cfg, cleanup))
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if cleanup := cleanupFrom(cmd.Context()); cleanup != nil {
			cleanup()
		}
	}

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newExplainCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
