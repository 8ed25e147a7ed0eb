package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"co2-bunny/internal/features/impact"
)

func newCalculateCmd(a *app) *cobra.Command {
	var url, views string

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the annual CO2 footprint of a website",
		Long: `Calculate the annual CO2 footprint of a website and print the stored analysis as JSON.
A fresh analysis for the same url and page views is reused instead of calling the providers.`,
		Example: `  co2bunny calculate --url example.com --views 100000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withImpact(cmd.Context(), func(service *impact.Service) error {
				result, err := service.Aggregator().Calculate(cmd.Context(), url, views)
				if err != nil {
					return err
				}

				if result.Message != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), result.Message)
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "website url, used as given")
	cmd.Flags().StringVar(&views, "views", "", "annual page views (whole number, 0 or more)")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagRequired("views")

	return cmd
}
