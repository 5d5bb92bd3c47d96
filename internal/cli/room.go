package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/rpsarena/internal/api/response"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Private room commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomCancelCmd())
	cmd.AddCommand(newRoomStatusCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var rounds int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a private room and print its code",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]int{"max_rounds": rounds}
			var result response.CreatedRoom

			if err := client.Post(cmd.Context(), "/api/v1/rooms", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 3, "Maximum rounds (odd, 1-9)")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a private room by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"code": args[0]}
			var result response.JoinedRoom

			if err := client.Post(cmd.Context(), "/api/v1/rooms/join", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel your waiting room",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), "/api/v1/rooms/cancel", nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Room cancelled")
			return nil
		},
	}
}

func newRoomStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your latest room",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RoomStatus

			if err := client.Get(cmd.Context(), "/api/v1/rooms/status", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
