package cli

import (
	"context"
	"errors"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsarena/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
		Long: `Game commands. Each takes an optional game id; without one the
command acts on your active game.`,
	}

	cmd.AddCommand(newGameStateCmd())
	cmd.AddCommand(newGameMoveCmd())
	cmd.AddCommand(newGameForfeitCmd())

	return cmd
}

func newGameStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state [game-id]",
		Short: "Show game state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(cmd.Context(), args)
			if err != nil {
				return err
			}

			var result response.Game
			if err := client.Get(cmd.Context(), gamePath(id), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGameMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <rock|paper|scissors> [game-id]",
		Short: "Submit your move for the current round",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(cmd.Context(), args[1:])
			if err != nil {
				return err
			}

			req := map[string]string{"move": args[0]}
			var result response.Game
			if err := client.Post(cmd.Context(), gamePath(id)+"/moves", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGameForfeitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forfeit [game-id]",
		Short: "Concede the game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(cmd.Context(), args)
			if err != nil {
				return err
			}

			var result response.Game
			if err := client.Post(cmd.Context(), gamePath(id)+"/forfeit", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func gamePath(id string) string {
	return "/api/v1/games/" + url.PathEscape(id)
}

// gameIDArg returns the given game id, or the caller's active game
func gameIDArg(ctx context.Context, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	var hb response.Heartbeat
	if err := client.Post(ctx, "/api/v1/players/me/heartbeat", nil, &hb); err != nil {
		return "", err
	}
	if hb.ActiveGameID == nil {
		return "", errors.New("no active game; pass a game id")
	}
	return *hb.ActiveGameID, nil
}
