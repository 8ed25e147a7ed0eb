package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact"
	"co2-bunny/internal/server"
)

// app carries what every subcommand needs once the root command has loaded
// the configuration
type app struct {
	config *core.Config
	logger *core.Logger
}

// NewRootCmd creates the root command for co2bunny
func NewRootCmd() *cobra.Command {
	a := &app{}
	var configFile string

	cmd := &cobra.Command{
		Use:   "co2bunny",
		Short: "Estimate the carbon footprint of websites",
		Long: `co2bunny combines page-weight data from the Website Carbon API, green hosting
data from the Green Web Foundation and annual traffic into one CO2 estimate.
Results are stored and reused for identical requests within the cache window.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				if err := os.Setenv("CO2_CONFIG_FILE", configFile); err != nil {
					return err
				}
			}

			config, err := core.LoadConfig()
			if err != nil {
				return core.NewConfigurationError("failed to load configuration", err)
			}
			a.config = config

			// Keep stdout clean for command output; only the server logs there
			if cmd.Name() == "serve" {
				a.logger = core.NewLogger(config.LogLevel())
			} else {
				a.logger = core.NewLoggerWithWriter(cmd.ErrOrStderr(), config.LogLevel())
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (overrides CO2_CONFIG_FILE)")

	// Add subcommands
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newCalculateCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newMigrateCmd(a))

	return cmd
}

func (a *app) openDatabase() (*core.Database, error) {
	db, err := core.OpenDatabase(a.config.Database.Path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// withImpact opens the database, brings it up to date and hands the impact
// service to fn
func (a *app) withImpact(ctx context.Context, fn func(*impact.Service) error) error {
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	service := impact.NewService(a.logger.ForFeature(impact.FeatureName), db, nil, impact.ConfigFromCore(a.config))
	if err := service.Migrate(ctx); err != nil {
		return err
	}

	return fn(service)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
