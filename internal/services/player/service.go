package player

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/rpsarena/internal/consistency"
	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/dependencies/random"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

// Config holds configuration for the player service
type Config struct {
	SessionDuration time.Duration

	// TouchInterval is the minimum gap between liveness writes for a player
	TouchInterval time.Duration

	// OnlineWindow is how recently a player must have been active to be listed as online
	OnlineWindow time.Duration
}

// DefaultConfig returns default player configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		TouchInterval:   15 * time.Second,
		OnlineWindow:    5 * time.Minute,
	}
}

// Service handles player identity, sessions, liveness and standings
type Service struct {
	consistency *consistency.Controller
	sessions    SessionStore
	clock       clock.Clock
	random      random.Random
	config      Config
	logger      *slog.Logger
}

// New creates a new player Service
func New(
	consistency *consistency.Controller,
	sessions SessionStore,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.OnlineWindow == 0 {
		cfg.OnlineWindow = DefaultConfig().OnlineWindow
	}
	return &Service{
		consistency: consistency,
		sessions:    sessions,
		clock:       clock,
		random:      random,
		config:      cfg,
		logger:      logger,
	}
}

// Create registers a new player at the default rating and opens a session
func (s *Service) Create(ctx context.Context, displayName string) (*model.Session, *model.Player, error) {
	name, err := model.NormalizeDisplayName(displayName)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	player := &model.Player{
		ID:           model.PlayerID(s.random.ID()),
		DisplayName:  name,
		Rating:       model.DefaultRating,
		LastActiveAt: now,
		CreatedAt:    now,
	}

	err = s.consistency.Run(ctx, "player.create", func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertPlayer(ctx, player)
	})
	if err != nil {
		return nil, nil, err
	}

	session := &model.Session{
		Token:     generateToken("sess_"),
		PlayerID:  player.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionDuration),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, nil, err
	}

	s.logger.Info("player created",
		slog.String("player_id", string(player.ID)),
		slog.String("display_name", name),
	)
	return session, player, nil
}

// ValidateSession checks a session token and returns the session
func (s *Service) ValidateSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrInvalidSession
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.clock.Now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, model.ErrInvalidSession
	}
	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// Get returns a player by id
func (s *Service) Get(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player *model.Player
	err := s.consistency.Run(ctx, "player.get", func(ctx context.Context, tx storage.Tx) error {
		var err error
		player, err = tx.GetPlayer(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// Touch records that the player is active. Writes closer together than the
// touch interval are skipped.
func (s *Service) Touch(ctx context.Context, id model.PlayerID) error {
	return s.consistency.Run(ctx, "player.touch", func(ctx context.Context, tx storage.Tx) error {
		player, err := tx.GetPlayer(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if now.Sub(player.LastActiveAt) < s.config.TouchInterval {
			return nil
		}
		return tx.TouchPlayer(ctx, id, now)
	})
}

// Heartbeat touches the player and returns their active game, if any
func (s *Service) Heartbeat(ctx context.Context, id model.PlayerID) (*model.GameID, error) {
	if err := s.Touch(ctx, id); err != nil {
		return nil, err
	}

	var gameID *model.GameID
	err := s.consistency.Run(ctx, "player.heartbeat", func(ctx context.Context, tx storage.Tx) error {
		gameID = nil
		g, err := tx.FindActiveGame(ctx, id)
		if errors.Is(err, model.ErrGameNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		gameID = &g.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gameID, nil
}

// generateToken generates a random opaque token with a prefix
func generateToken(prefix string) string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
