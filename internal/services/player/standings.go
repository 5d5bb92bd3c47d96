package player

import (
	"context"
	"errors"

	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/rating"
	"github.com/mcoot/rpsarena/internal/storage"
)

const (
	streakWindow = 20

	DefaultMatchLimit = 10
	MaxMatchLimit     = 50

	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100

	DefaultOnlineLimit = 20
	MaxOnlineLimit     = 50
)

func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, ceiling)
}

// Stats returns a player's record with rank, tier and current win streak
func (s *Service) Stats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error) {
	var stats *model.PlayerStats
	err := s.consistency.Run(ctx, "player.stats", func(ctx context.Context, tx storage.Tx) error {
		player, err := tx.GetPlayer(ctx, id)
		if err != nil {
			return err
		}
		above, err := tx.CountPlayersRatedAbove(ctx, player.Rating)
		if err != nil {
			return err
		}
		recent, err := tx.ListConcludedGames(ctx, id, streakWindow, model.GameStatusFinished)
		if err != nil {
			return err
		}

		streak := 0
		for _, g := range recent {
			if g.WinnerID == nil || *g.WinnerID != id {
				break
			}
			streak++
		}

		stats = &model.PlayerStats{
			Player:     *player,
			WinRate:    player.WinRate(),
			GlobalRank: above + 1,
			Tier:       rating.TierFor(player.Rating).Name,
			WinStreak:  streak,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Matches returns the player's most recently concluded games
func (s *Service) Matches(ctx context.Context, id model.PlayerID, limit int) ([]model.MatchSummary, error) {
	limit = clampLimit(limit, DefaultMatchLimit, MaxMatchLimit)

	var matches []model.MatchSummary
	err := s.consistency.Run(ctx, "player.matches", func(ctx context.Context, tx storage.Tx) error {
		matches = []model.MatchSummary{}
		if _, err := tx.GetPlayer(ctx, id); err != nil {
			return err
		}

		games, err := tx.ListConcludedGames(ctx, id, limit, model.GameStatusFinished, model.GameStatusAbandoned)
		if err != nil {
			return err
		}

		names := map[model.PlayerID]string{}
		for _, g := range games {
			opponentID := g.OpponentOf(id)
			name, ok := names[opponentID]
			if !ok {
				opponent, err := tx.GetPlayer(ctx, opponentID)
				if err != nil {
					return err
				}
				name = opponent.DisplayName
				names[opponentID] = name
			}

			result := model.MatchResultDraw
			if g.WinnerID != nil {
				result = model.MatchResultLoss
				if *g.WinnerID == id {
					result = model.MatchResultWin
				}
			}

			matches = append(matches, model.MatchSummary{
				GameID:        g.ID,
				Status:        g.Status,
				OpponentID:    opponentID,
				OpponentName:  name,
				YourScore:     g.ScoreOf(id),
				OpponentScore: g.ScoreOf(opponentID),
				Result:        result,
				FinishedAt:    *g.FinishedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Leaderboard ranks players who have completed at least one game
func (s *Service) Leaderboard(ctx context.Context, sort model.LeaderboardSort, limit int) ([]model.LeaderboardEntry, error) {
	limit = clampLimit(limit, DefaultLeaderboardLimit, MaxLeaderboardLimit)

	var players []*model.Player
	err := s.consistency.Run(ctx, "player.leaderboard", func(ctx context.Context, tx storage.Tx) error {
		var err error
		players, err = tx.ListLeaderboard(ctx, sort, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = model.LeaderboardEntry{
			Position: i + 1,
			Player:   *p,
			WinRate:  p.WinRate(),
			Tier:     rating.TierFor(p.Rating).Name,
		}
	}
	return entries, nil
}

// Online lists players active within the online window, highest rated first
func (s *Service) Online(ctx context.Context, limit int) ([]model.OnlinePlayer, error) {
	limit = clampLimit(limit, DefaultOnlineLimit, MaxOnlineLimit)
	since := s.clock.Now().Add(-s.config.OnlineWindow)

	var online []model.OnlinePlayer
	err := s.consistency.Run(ctx, "player.online", func(ctx context.Context, tx storage.Tx) error {
		players, err := tx.ListOnlinePlayers(ctx, since, limit)
		if err != nil {
			return err
		}

		online = make([]model.OnlinePlayer, len(players))
		for i, p := range players {
			_, err := tx.FindActiveGame(ctx, p.ID)
			if err != nil && !errors.Is(err, model.ErrGameNotFound) {
				return err
			}
			online[i] = model.OnlinePlayer{Player: *p, InGame: err == nil}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return online, nil
}
