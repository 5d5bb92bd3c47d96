// Package sweeper cleans up state left behind by players who went away:
// stale queue entries, games nobody is playing, rooms nobody joined and
// rounds whose game is gone.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/rpsarena/internal/consistency"
	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

// Locker grants exclusive leases so only one instance sweeps at a time
type Locker interface {
	// TryAcquire takes the named lease for ttl. The returned release func is
	// nil when the lease is held elsewhere.
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Config holds sweep thresholds
type Config struct {
	QueueTimeout        time.Duration
	InactivityThreshold time.Duration

	// LeaseName and LeaseTTL apply when a Locker is configured
	LeaseName string
	LeaseTTL  time.Duration
}

// DefaultConfig returns a five minute queue timeout and ten minute inactivity threshold
func DefaultConfig() Config {
	return Config{
		QueueTimeout:        5 * time.Minute,
		InactivityThreshold: 10 * time.Minute,
		LeaseName:           "sweep",
		LeaseTTL:            time.Minute,
	}
}

// Service runs staleness sweeps
type Service struct {
	consistency *consistency.Controller
	locker      Locker
	clock       clock.Clock
	config      Config
	logger      *slog.Logger
}

// New creates a sweeper. locker may be nil.
func New(
	consistency *consistency.Controller,
	locker Locker,
	clock clock.Clock,
	config Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		consistency: consistency,
		locker:      locker,
		clock:       clock,
		config:      config,
		logger:      logger,
	}
}

// Sweep runs every cleanup step once and reports what it removed. Abandoned
// games do not change ratings. Running it repeatedly is harmless.
func (s *Service) Sweep(ctx context.Context) (*model.SweepReport, error) {
	if s.locker != nil {
		release, err := s.locker.TryAcquire(ctx, s.config.LeaseName, s.config.LeaseTTL)
		if err != nil {
			return nil, err
		}
		if release == nil {
			s.logger.Debug("sweep skipped, lease held elsewhere")
			return &model.SweepReport{Skipped: true}, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release sweep lease", slog.String("error", err.Error()))
			}
		}()
	}

	report := &model.SweepReport{}
	now := s.clock.Now()

	// Games abandoned by the step that just ran, logged once it commits
	var abandoned []*model.Game

	steps := []struct {
		op    string
		count *int
		run   func(ctx context.Context, tx storage.Tx) (int, error)
	}{
		{"sweep.queue", &report.QueueEvicted, func(ctx context.Context, tx storage.Tx) (int, error) {
			return tx.DeleteQueueEntriesJoinedBefore(ctx, now.Add(-s.config.QueueTimeout))
		}},
		{"sweep.games", &report.GamesAbandoned, func(ctx context.Context, tx storage.Tx) (int, error) {
			var err error
			abandoned, err = s.abandonStaleGames(ctx, tx, now)
			return len(abandoned), err
		}},
		{"sweep.rooms", &report.RoomsExpired, func(ctx context.Context, tx storage.Tx) (int, error) {
			return tx.ExpireRooms(ctx, now)
		}},
		{"sweep.rounds", &report.RoundsDeleted, func(ctx context.Context, tx storage.Tx) (int, error) {
			return tx.DeleteOrphanRounds(ctx)
		}},
	}

	for _, step := range steps {
		err := s.consistency.Run(ctx, step.op, func(ctx context.Context, tx storage.Tx) error {
			abandoned = nil
			n, err := step.run(ctx, tx)
			*step.count = n
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, g := range abandoned {
			s.logger.Info("game abandoned for inactivity",
				slog.String("game_id", string(g.ID)),
				slog.Int("player1_score", g.Player1Score),
				slog.Int("player2_score", g.Player2Score),
			)
		}
		abandoned = nil
	}

	s.logger.Info("sweep complete",
		slog.Int("queue_evicted", report.QueueEvicted),
		slog.Int("games_abandoned", report.GamesAbandoned),
		slog.Int("rooms_expired", report.RoomsExpired),
		slog.Int("rounds_deleted", report.RoundsDeleted),
	)
	return report, nil
}

// abandonStaleGames ends active games whose players have both gone quiet.
// The player ahead on score is recorded as winner; ratings are untouched.
func (s *Service) abandonStaleGames(ctx context.Context, tx storage.Tx, now time.Time) ([]*model.Game, error) {
	stale, err := tx.ListStaleGames(ctx, now.Add(-s.config.InactivityThreshold))
	if err != nil {
		return nil, err
	}

	var abandoned []*model.Game
	for _, candidate := range stale {
		g, err := tx.LockGame(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		if !g.IsActive() {
			continue
		}

		g.Status = model.GameStatusAbandoned
		g.WinnerID = g.LeaderByScore()
		g.FinishedAt = &now
		if err := tx.UpdateGame(ctx, g); err != nil {
			return nil, err
		}
		abandoned = append(abandoned, g)
	}
	return abandoned, nil
}
