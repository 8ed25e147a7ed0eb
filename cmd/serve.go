package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"co2-bunny/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and analyze page",
		Long:  `Serve the impact API, the analyze page, /health and /metrics until SIGINT or SIGTERM.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			srv, err := server.New(a.config, a.logger, db)
			if err != nil {
				return err
			}

			if err := srv.Start(ctx); err != nil {
				a.logger.Error("Server stopped with error", "error", err)
				return err
			}

			db.LogStats()
			a.logger.Info("Server stopped")
			return nil
		},
	}
}
