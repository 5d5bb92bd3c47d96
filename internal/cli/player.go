package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsarena/internal/api/response"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerCreateCmd())
	cmd.AddCommand(newPlayerMeCmd())
	cmd.AddCommand(newPlayerHeartbeatCmd())
	cmd.AddCommand(newPlayerStatsCmd())
	cmd.AddCommand(newPlayerMatchesCmd())
	cmd.AddCommand(newPlayerOnlineCmd())

	return cmd
}

func newPlayerCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a player and save its session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"display_name": name}
			var result response.AuthResponse

			if err := client.Post(cmd.Context(), "/api/v1/players", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show current player info",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Player

			if err := client.Get(cmd.Context(), "/api/v1/players/me", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayerHeartbeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Mark yourself active and show your active game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Heartbeat

			if err := client.Post(cmd.Context(), "/api/v1/players/me/heartbeat", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayerStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [player-id]",
		Short: "Show a player's stats (default: yourself)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := playerIDArg(cmd.Context(), args)
			if err != nil {
				return err
			}

			var result response.Stats
			if err := client.Get(cmd.Context(), "/api/v1/players/"+url.PathEscape(id)+"/stats", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayerMatchesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "matches [player-id]",
		Short: "Show a player's recent matches (default: yourself)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := playerIDArg(cmd.Context(), args)
			if err != nil {
				return err
			}

			path := "/api/v1/players/" + url.PathEscape(id) + "/matches"
			if limit > 0 {
				path += fmt.Sprintf("?limit=%d", limit)
			}

			var result []response.Match
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum matches to show (server default 10)")

	return cmd
}

func newPlayerOnlineCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "online",
		Short: "Show recently active players",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/players/online"
			if limit > 0 {
				path += fmt.Sprintf("?limit=%d", limit)
			}

			var result response.OnlinePlayers
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum players to show (server default 20)")

	return cmd
}

// playerIDArg returns the given player id, or the caller's own
func playerIDArg(ctx context.Context, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	var me response.Player
	if err := client.Get(ctx, "/api/v1/players/me", &me); err != nil {
		return "", err
	}
	return me.ID, nil
}
