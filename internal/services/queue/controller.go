package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/rpsarena/internal/consistency"
	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/game"
	"github.com/mcoot/rpsarena/internal/services/room"
	"github.com/mcoot/rpsarena/internal/storage"
)

// Config holds matchmaking settings
type Config struct {
	// Timeout is how long an entry may wait before it is evicted
	Timeout time.Duration

	// MaxRounds is the length of games formed from the queue
	MaxRounds int
}

// DefaultConfig returns a five minute timeout and best-of-3 games
func DefaultConfig() Config {
	return Config{
		Timeout:   5 * time.Minute,
		MaxRounds: model.DefaultMaxRounds,
	}
}

// Controller manages the open matchmaking queue
type Controller struct {
	consistency *consistency.Controller
	games       game.ControllerInterface
	clock       clock.Clock
	config      Config
	logger      *slog.Logger
}

// NewController creates a new queue Controller
func NewController(
	consistency *consistency.Controller,
	games game.ControllerInterface,
	clock clock.Clock,
	config Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		consistency: consistency,
		games:       games,
		clock:       clock,
		config:      config,
		logger:      logger,
	}
}

// Join enqueues the player and reports their status, which may already be a
// match. Joining while queued changes nothing.
func (c *Controller) Join(ctx context.Context, playerID model.PlayerID) (*model.QueueStatus, error) {
	joined := false
	err := c.consistency.Run(ctx, "queue.join", func(ctx context.Context, tx storage.Tx) error {
		joined = false
		now := c.clock.Now()
		if err := room.ExpireLapsed(ctx, tx, playerID, now); err != nil {
			return err
		}
		players, err := tx.LockPlayers(ctx, playerID)
		if err != nil {
			return err
		}

		if _, err := tx.GetQueueEntry(ctx, playerID); err == nil {
			return nil
		} else if !errors.Is(err, model.ErrNotQueued) {
			return err
		}
		if err := game.EnsureNotPlaying(ctx, tx, playerID); err != nil {
			return err
		}
		if _, err := tx.FindWaitingRoom(ctx, playerID); err == nil {
			return model.ErrHostingRoom
		} else if !errors.Is(err, model.ErrRoomNotFound) {
			return err
		}

		joined = true
		return tx.InsertQueueEntry(ctx, &model.QueueEntry{
			PlayerID: playerID,
			Rating:   players[playerID].Rating,
			JoinedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if joined {
		c.logger.Info("player queued", slog.String("player_id", string(playerID)))
	}
	return c.PollStatus(ctx, playerID)
}

// Leave removes the player from the queue. Leaving when not queued succeeds.
func (c *Controller) Leave(ctx context.Context, playerID model.PlayerID) error {
	return c.consistency.Run(ctx, "queue.leave", func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.DeleteQueueEntries(ctx, playerID)
		return err
	})
}

// PollStatus reports whether the player has been matched, is still waiting,
// or timed out. A waiting player gets a match attempt on every poll.
func (c *Controller) PollStatus(ctx context.Context, playerID model.PlayerID) (*model.QueueStatus, error) {
	status, err := c.inspect(ctx, playerID, true)
	if err != nil || !status.InQueue {
		return status, err
	}

	if _, err := c.TryMatch(ctx, playerID); err != nil {
		return nil, err
	}
	return c.inspect(ctx, playerID, false)
}

// inspect reads the player's queue position. With evict set, an entry older
// than the timeout is removed and reported as a timeout.
func (c *Controller) inspect(ctx context.Context, playerID model.PlayerID, evict bool) (*model.QueueStatus, error) {
	var status *model.QueueStatus
	err := c.consistency.Run(ctx, "queue.status", func(ctx context.Context, tx storage.Tx) error {
		status = &model.QueueStatus{}
		now := c.clock.Now()

		g, err := tx.FindActiveGame(ctx, playerID)
		if err == nil {
			opponent, err := tx.GetPlayer(ctx, g.OpponentOf(playerID))
			if err != nil {
				return err
			}
			status.Matched = true
			status.GameID = &g.ID
			status.OpponentName = opponent.DisplayName
			_, err = tx.DeleteQueueEntries(ctx, playerID)
			return err
		}
		if !errors.Is(err, model.ErrGameNotFound) {
			return err
		}

		entry, err := tx.GetQueueEntry(ctx, playerID)
		if errors.Is(err, model.ErrNotQueued) {
			return nil
		}
		if err != nil {
			return err
		}

		waited := now.Sub(entry.JoinedAt)
		if evict && waited > c.config.Timeout {
			status.Timeout = true
			_, err := tx.DeleteQueueEntries(ctx, playerID)
			return err
		}

		waiting, err := tx.CountQueueEntries(ctx)
		if err != nil {
			return err
		}
		status.InQueue = true
		status.WaitSeconds = int(waited / time.Second)
		status.PlayersWaiting = waiting
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status.Timeout {
		c.logger.Info("queue entry timed out", slog.String("player_id", string(playerID)))
	}
	return status, nil
}

// TryMatch pairs the player with the longest-waiting other player. It
// returns nil when no pair could be formed.
func (c *Controller) TryMatch(ctx context.Context, playerID model.PlayerID) (*model.GameID, error) {
	var created *model.Game
	err := c.consistency.Run(ctx, "queue.try_match", func(ctx context.Context, tx storage.Tx) error {
		created = nil

		self, opponent, err := tx.LockQueuePair(ctx, playerID)
		if err != nil {
			return err
		}
		if self == nil || opponent == nil {
			return nil
		}

		players, err := tx.LockPlayers(ctx, self.PlayerID, opponent.PlayerID)
		if err != nil {
			return err
		}

		// A queued player may have been paired through a private room since.
		for _, e := range []*model.QueueEntry{self, opponent} {
			err := game.EnsureNotPlaying(ctx, tx, e.PlayerID)
			if errors.Is(err, model.ErrAlreadyInGame) {
				_, err := tx.DeleteQueueEntries(ctx, e.PlayerID)
				return err
			}
			if err != nil {
				return err
			}
		}

		// The entry that queued first takes the first seat.
		first, second := players[opponent.PlayerID], players[self.PlayerID]
		if self.Seq < opponent.Seq {
			first, second = second, first
		}
		g, err := c.games.Create(ctx, tx,
			game.Seat{PlayerID: first.ID, Rating: first.Rating},
			game.Seat{PlayerID: second.ID, Rating: second.Rating},
			c.config.MaxRounds, nil)
		if err != nil {
			return err
		}

		if _, err := tx.DeleteQueueEntries(ctx, self.PlayerID, opponent.PlayerID); err != nil {
			return err
		}
		created = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, nil
	}

	c.logger.Info("players matched",
		slog.String("game_id", string(created.ID)),
		slog.String("player1_id", string(created.Player1ID)),
		slog.String("player2_id", string(created.Player2ID)),
		slog.Int("max_rounds", created.MaxRounds),
	)
	return &created.ID, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	Join(ctx context.Context, playerID model.PlayerID) (*model.QueueStatus, error)
	Leave(ctx context.Context, playerID model.PlayerID) error
	PollStatus(ctx context.Context, playerID model.PlayerID) (*model.QueueStatus, error)
	TryMatch(ctx context.Context, playerID model.PlayerID) (*model.GameID, error)
}

var _ ControllerInterface = (*Controller)(nil)
