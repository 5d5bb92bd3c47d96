package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsarena/internal/api/response"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Matchmaking queue commands",
	}

	cmd.AddCommand(newQueueJoinCmd())
	cmd.AddCommand(newQueueLeaveCmd())
	cmd.AddCommand(newQueueStatusCmd())

	return cmd
}

func newQueueJoinCmd() *cobra.Command {
	var (
		wait     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the matchmaking queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var result response.QueueStatus

			if err := client.Post(ctx, "/api/v1/queue/join", nil, &result); err != nil {
				return err
			}

			// Keep polling until matched or dropped from the queue
			if wait {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for result.InQueue && !result.Matched {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-ticker.C:
					}
					if err := client.Get(ctx, "/api/v1/queue/status", &result); err != nil {
						return err
					}
				}
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until matched or timed out")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Poll interval with --wait")

	return cmd
}

func newQueueLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the matchmaking queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), "/api/v1/queue/leave", nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Left the queue")
			return nil
		},
	}
}

func newQueueStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.QueueStatus

			if err := client.Get(cmd.Context(), "/api/v1/queue/status", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
