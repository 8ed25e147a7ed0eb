package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"co2-bunny/internal/features/impact/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrations(func(manager *migrations.Manager) error {
				if err := manager.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations up to date")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrations(func(manager *migrations.Manager) error {
				status, err := manager.Status(cmd.Context())
				if err != nil {
					return err
				}
				pending, err := manager.GetPendingMigrations(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "feature: %s\n", status.Feature)
				fmt.Fprintf(out, "applied: %d\n", status.AppliedCount)
				for _, m := range status.Applied {
					fmt.Fprintf(out, "  %03d %s\n", m.Version, m.Name)
				}
				fmt.Fprintf(out, "pending: %d\n", len(pending))
				for _, m := range pending {
					fmt.Fprintf(out, "  %03d %s\n", m.Version, m.Name)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrations(func(manager *migrations.Manager) error {
				if err := manager.Rollback(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
				return nil
			})
		},
	})

	return cmd
}

func (a *app) withMigrations(fn func(*migrations.Manager) error) error {
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(migrations.NewManager(db, a.logger))
}
