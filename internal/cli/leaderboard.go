package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsarena/internal/api/response"
)

func newLeaderboardCmd() *cobra.Command {
	var (
		sort  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if sort != "" {
				q.Set("sort", sort)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/v1/leaderboard"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result []response.LeaderboardEntry
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "", "Sort key: rating, wins, winrate")
	cmd.Flags().IntVar(&limit, "limit", 0, "Rows to show (server default 10)")

	return cmd
}
