package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/rpsarena/internal/consistency"
	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/dependencies/hasher"
	"github.com/mcoot/rpsarena/internal/dependencies/random"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/game"
	"github.com/mcoot/rpsarena/internal/storage"
)

// codeAttempts bounds how many codes are drawn before giving up on uniqueness
const codeAttempts = 5

// Config holds private room settings
type Config struct {
	// TTL is how long a room waits for a joiner
	TTL time.Duration
}

// DefaultConfig returns a ten minute room lifetime
func DefaultConfig() Config {
	return Config{TTL: 10 * time.Minute}
}

// Controller manages private rooms joined by code
type Controller struct {
	consistency *consistency.Controller
	games       game.ControllerInterface
	hasher      hasher.Hasher
	clock       clock.Clock
	random      random.Random
	config      Config
	logger      *slog.Logger
}

// NewController creates a new room Controller
func NewController(
	consistency *consistency.Controller,
	games game.ControllerInterface,
	hasher hasher.Hasher,
	clock clock.Clock,
	random random.Random,
	config Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		consistency: consistency,
		games:       games,
		hasher:      hasher,
		clock:       clock,
		random:      random,
		config:      config,
		logger:      logger,
	}
}

// CreateRoom opens a room for the host. The returned code is the only copy
// of it; only its hash is stored.
func (c *Controller) CreateRoom(ctx context.Context, hostID model.PlayerID, maxRounds int) (*model.CreatedRoom, error) {
	if err := model.ValidateMaxRounds(maxRounds); err != nil {
		return nil, err
	}

	code, err := c.generateCode(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := c.hasher.Hash(code)
	if err != nil {
		return nil, err
	}

	var room *model.PrivateRoom
	err = c.consistency.Run(ctx, "room.create", func(ctx context.Context, tx storage.Tx) error {
		now := c.clock.Now()
		if err := ExpireLapsed(ctx, tx, hostID, now); err != nil {
			return err
		}
		if _, err := tx.LockPlayers(ctx, hostID); err != nil {
			return err
		}

		if _, err := tx.FindWaitingRoom(ctx, hostID); err == nil {
			return model.ErrRoomAlreadyOpen
		} else if !errors.Is(err, model.ErrRoomNotFound) {
			return err
		}
		if err := game.EnsureNotPlaying(ctx, tx, hostID); err != nil {
			return err
		}
		if _, err := tx.GetQueueEntry(ctx, hostID); err == nil {
			return model.ErrInQueue
		} else if !errors.Is(err, model.ErrNotQueued) {
			return err
		}

		room = &model.PrivateRoom{
			ID:        model.RoomID(c.random.ID()),
			HostID:    hostID,
			CodeHash:  hash,
			MaxRounds: maxRounds,
			State:     model.RoomStateWaiting,
			ExpiresAt: now.Add(c.config.TTL),
			CreatedAt: now,
		}
		return tx.InsertRoom(ctx, room)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("host_id", string(hostID)),
		slog.Int("max_rounds", maxRounds),
	)
	return &model.CreatedRoom{Room: *room, Code: code}, nil
}

// generateCode draws a code that no joinable room currently answers to
func (c *Controller) generateCode(ctx context.Context) (string, error) {
	open, err := c.joinableRooms(ctx)
	if err != nil {
		return "", err
	}

	var code string
	for range codeAttempts {
		code = c.random.String(model.RoomCodeLength, model.RoomCodeAlphabet)
		if c.match(open, code) == nil {
			return code, nil
		}
	}
	return "", model.Invariant("no unused room code after %d attempts", codeAttempts)
}

func (c *Controller) joinableRooms(ctx context.Context) ([]*model.PrivateRoom, error) {
	var rooms []*model.PrivateRoom
	err := c.consistency.Run(ctx, "room.list_joinable", func(ctx context.Context, tx storage.Tx) error {
		var err error
		rooms, err = tx.ListJoinableRooms(ctx, c.clock.Now())
		return err
	})
	return rooms, err
}

// match returns the first room whose hash matches code
func (c *Controller) match(rooms []*model.PrivateRoom, code string) *model.PrivateRoom {
	for _, r := range rooms {
		if c.hasher.Matches(r.CodeHash, code) {
			return r
		}
	}
	return nil
}

// JoinRoom starts a game between the room's host and the joiner. Of several
// concurrent joiners with the right code, exactly one succeeds.
func (c *Controller) JoinRoom(ctx context.Context, playerID model.PlayerID, code string) (*model.GameID, error) {
	code, err := model.NormalizeRoomCode(code)
	if err != nil {
		return nil, err
	}

	// Hash comparison is slow, so the candidate is found before any row is locked.
	open, err := c.joinableRooms(ctx)
	if err != nil {
		return nil, err
	}
	candidate := c.match(open, code)
	if candidate == nil {
		return nil, model.ErrInvalidRoomCode
	}
	if candidate.HostID == playerID {
		return nil, model.ErrCannotJoinOwnRoom
	}

	var created *model.Game
	err = c.consistency.Run(ctx, "room.join", func(ctx context.Context, tx storage.Tx) error {
		created = nil

		if _, err := tx.LockQueueEntries(ctx, candidate.HostID, playerID); err != nil {
			return err
		}
		room, err := tx.LockRoom(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if room.State != model.RoomStateWaiting {
			return model.ErrRoomAlreadyStarted
		}
		if !c.clock.Now().Before(room.ExpiresAt) {
			return model.ErrInvalidRoomCode
		}

		players, err := tx.LockPlayers(ctx, room.HostID, playerID)
		if err != nil {
			return err
		}
		if err := game.EnsureNotPlaying(ctx, tx, playerID); err != nil {
			return err
		}
		if err := game.EnsureNotPlaying(ctx, tx, room.HostID); err != nil {
			// The host is busy elsewhere; the room is stale
			return model.ErrInvalidRoomCode
		}

		host, joiner := players[room.HostID], players[playerID]
		g, err := c.games.Create(ctx, tx,
			game.Seat{PlayerID: host.ID, Rating: host.Rating},
			game.Seat{PlayerID: joiner.ID, Rating: joiner.Rating},
			room.MaxRounds, &room.ID)
		if err != nil {
			return err
		}

		room.State = model.RoomStateStarted
		room.GameID = &g.ID
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}
		if _, err := tx.DeleteQueueEntries(ctx, host.ID, joiner.ID); err != nil {
			return err
		}
		created = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("room joined",
		slog.String("room_id", string(candidate.ID)),
		slog.String("player_id", string(playerID)),
		slog.String("game_id", string(created.ID)),
		slog.String("host_id", string(created.Player1ID)),
		slog.Int("max_rounds", created.MaxRounds),
	)
	return &created.ID, nil
}

// CancelRoom expires the host's waiting room, if any
func (c *Controller) CancelRoom(ctx context.Context, hostID model.PlayerID) error {
	cancelled := false
	err := c.consistency.Run(ctx, "room.cancel", func(ctx context.Context, tx storage.Tx) error {
		cancelled = false
		found, err := tx.FindWaitingRoom(ctx, hostID)
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		room, err := tx.LockRoom(ctx, found.ID)
		if err != nil {
			return err
		}
		if room.State != model.RoomStateWaiting {
			return nil
		}
		room.State = model.RoomStateExpired
		cancelled = true
		return tx.UpdateRoom(ctx, room)
	})
	if err != nil {
		return err
	}

	if cancelled {
		c.logger.Info("room cancelled", slog.String("host_id", string(hostID)))
	}
	return nil
}

// RoomStatus reports the host's latest room. A waiting room found past its
// expiry is expired on the spot.
func (c *Controller) RoomStatus(ctx context.Context, hostID model.PlayerID) (*model.RoomStatus, error) {
	var status *model.RoomStatus
	err := c.consistency.Run(ctx, "room.status", func(ctx context.Context, tx storage.Tx) error {
		status = &model.RoomStatus{}

		found, err := tx.LatestRoom(ctx, hostID)
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		room := found
		now := c.clock.Now()
		if room.State == model.RoomStateWaiting && !now.Before(room.ExpiresAt) {
			if room, err = tx.LockRoom(ctx, found.ID); err != nil {
				return err
			}
			expired, err := expireIfLapsed(ctx, tx, room, now)
			if err != nil {
				return err
			}
			status.Expired = expired || room.State == model.RoomStateExpired
		}

		status.HasRoom = true
		status.RoomID = room.ID
		status.MaxRounds = room.MaxRounds
		status.ExpiresAt = room.ExpiresAt

		if room.State == model.RoomStateStarted && room.GameID != nil {
			g, err := tx.GetGame(ctx, *room.GameID)
			if err != nil {
				return err
			}
			opponent, err := tx.GetPlayer(ctx, g.OpponentOf(hostID))
			if err != nil {
				return err
			}
			status.Matched = true
			status.GameID = &g.ID
			status.OpponentName = opponent.DisplayName
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// ExpireLapsed expires the host's waiting room if it is past its expiry, so
// that it no longer counts as open. It must run before the host's player row
// is locked.
func ExpireLapsed(ctx context.Context, tx storage.Tx, hostID model.PlayerID, now time.Time) error {
	found, err := tx.FindWaitingRoom(ctx, hostID)
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if now.Before(found.ExpiresAt) {
		return nil
	}

	room, err := tx.LockRoom(ctx, found.ID)
	if err != nil {
		return err
	}
	_, err = expireIfLapsed(ctx, tx, room, now)
	return err
}

// expireIfLapsed marks a locked room expired if it is still waiting past its expiry
func expireIfLapsed(ctx context.Context, tx storage.Tx, room *model.PrivateRoom, now time.Time) (bool, error) {
	if room.State != model.RoomStateWaiting || now.Before(room.ExpiresAt) {
		return false, nil
	}
	room.State = model.RoomStateExpired
	return true, tx.UpdateRoom(ctx, room)
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, hostID model.PlayerID, maxRounds int) (*model.CreatedRoom, error)
	JoinRoom(ctx context.Context, playerID model.PlayerID, code string) (*model.GameID, error)
	CancelRoom(ctx context.Context, hostID model.PlayerID) error
	RoomStatus(ctx context.Context, hostID model.PlayerID) (*model.RoomStatus, error)
}

var _ ControllerInterface = (*Controller)(nil)
