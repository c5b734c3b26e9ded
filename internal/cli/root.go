// Package cli implements botmrctl, the maintenance command line for the
// BotMR backend.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cuongbtq/botmr-be/internal/app"
	"github.com/cuongbtq/botmr-be/internal/config"
	"github.com/spf13/cobra"
)

// Dependencies is filled in by the root command before any subcommand runs.
type Dependencies struct {
	Out        io.Writer
	ConfigPath string

	Config *config.Config
	Logger *slog.Logger
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}

	var closeLogger func() error

	rootCmd := &cobra.Command{
		Use:           "botmrctl",
		Short:         "Maintain the BotMR meeting-recording backend",
		Long:          "botmrctl applies database migrations and runs the recording cleanup and expiry sweeps outside the API service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(deps.ConfigPath)
			if err != nil {
				return err
			}
			appLogger, err := app.NewLogger(&cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			deps.Config = cfg
			deps.Logger = appLogger.Logger
			closeLogger = appLogger.Close
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLogger != nil {
				return closeLogger()
			}
			return nil
		},
	}

	rootCmd.SetOut(deps.Out)
	rootCmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", deps.ConfigPath, "Path to configuration file")

	rootCmd.AddCommand(NewMigrateCmd(deps))
	rootCmd.AddCommand(NewCleanupCmd(deps))
	rootCmd.AddCommand(NewExpireCmd(deps))

	return rootCmd
}
