package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-guardian/internal/adapters/cli"
	"github.com/mikey/spam-guardian/internal/di"
	"github.com/mikey/spam-guardian/internal/metrics"
)

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the model health dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := di.BuildCLIContainer(flags, cli.NewRenderer(cmd.OutOrStdout()))
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}
			return container.Invoke(func(renderer *cli.Renderer, presenter *metrics.Presenter) {
				renderer.Dashboard(presenter.Dashboard())
			})
		},
	}
}
