package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsarena/internal/api/response"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health

			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a staleness sweep on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.MaintenanceToken == "" {
				return errors.New("--maintenance-token is required")
			}
			client.SetHeader("X-Maintenance-Token", cfg.MaintenanceToken)

			var result response.SweepReport
			if err := client.Post(cmd.Context(), "/api/v1/maintenance/sweep", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.MaintenanceToken, "maintenance-token", cfg.MaintenanceToken, "Operator token (env: RPSCTL_MAINTENANCE_TOKEN)")

	return cmd
}
