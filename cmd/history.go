package main

import (
	"github.com/spf13/cobra"

	"co2-bunny/internal/features/impact"
	"co2-bunny/internal/features/impact/models"
)

func newHistoryCmd(a *app) *cobra.Command {
	var url, limit string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses",
		Long: `List stored analyses as JSON, newest first. With --url only that exact url is listed;
otherwise the most recent analyses across all urls are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withImpact(cmd.Context(), func(service *impact.Service) error {
				var (
					analyses []models.WebsiteAnalysis
					err      error
				)
				if cmd.Flags().Changed("url") {
					analyses, err = service.History().ListByURL(cmd.Context(), url)
				} else {
					analyses, err = service.History().ListRecent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}

				return writeJSON(cmd.OutOrStdout(), analyses)
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "list every analysis for this exact url")
	cmd.Flags().StringVar(&limit, "limit", "", "number of recent analyses, 1 to 100 (default 10)")
	cmd.MarkFlagsMutuallyExclusive("url", "limit")

	return cmd
}
