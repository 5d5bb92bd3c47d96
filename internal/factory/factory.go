package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/rpsarena/internal/consistency"
	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/dependencies/hasher"
	"github.com/mcoot/rpsarena/internal/dependencies/random"
	"github.com/mcoot/rpsarena/internal/services/game"
	"github.com/mcoot/rpsarena/internal/services/player"
	"github.com/mcoot/rpsarena/internal/services/queue"
	"github.com/mcoot/rpsarena/internal/services/room"
	"github.com/mcoot/rpsarena/internal/services/sweeper"
	"github.com/mcoot/rpsarena/internal/storage"
	"github.com/mcoot/rpsarena/internal/storage/memory"
	"github.com/mcoot/rpsarena/internal/storage/postgres"
	redisstorage "github.com/mcoot/rpsarena/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
)

// The Redis store backs both sessions and the sweep lease
var (
	_ player.SessionStore = (*redisstorage.Store)(nil)
	_ sweeper.Locker      = (*redisstorage.Store)(nil)
)

// App contains all wired application components
type App struct {
	// Storage
	Storage  storage.Storage
	Sessions player.SessionStore
	Redis    *redisstorage.Store // nil unless configured

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Hasher hasher.Hasher

	// Services
	Consistency     *consistency.Controller
	PlayerService   *player.Service
	GameController  *game.Controller
	QueueController *queue.Controller
	RoomController  *room.Controller
	Sweeper         *sweeper.Service

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// PostgresConfig is required if StorageType is "postgres"
	PostgresConfig *postgres.Config
	// RedisConfig enables Redis-backed sessions and sweep leases (optional)
	RedisConfig *redisstorage.Config

	// Service settings; zero values fall back to each package's defaults
	Services ServiceConfig
}

// ServiceConfig groups per-service settings
type ServiceConfig struct {
	Player   player.Config
	Queue    queue.Config
	Room     room.Config
	Sweeper  sweeper.Config
	Retry    consistency.RetryPolicy
	HashCost int
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Player.SessionDuration == 0 {
		c.Player = player.DefaultConfig()
	}
	if c.Queue.Timeout == 0 {
		c.Queue = queue.DefaultConfig()
	}
	if c.Room.TTL == 0 {
		c.Room = room.DefaultConfig()
	}
	if c.Sweeper.QueueTimeout == 0 {
		c.Sweeper = sweeper.DefaultConfig()
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = consistency.DefaultRetryPolicy()
	}
	return c
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		pg, err := postgres.Open(ctx, *cfg.PostgresConfig, logger)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory' or 'postgres'", storageType)
	}

	var redisStore *redisstorage.Store
	if cfg.RedisConfig != nil {
		var err error
		redisStore, err = redisstorage.New(*cfg.RedisConfig, clk, rnd)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	services := cfg.Services.withDefaults()
	app := newWithDependencies(store, redisStore, clk, rnd, hasher.NewBcrypt(services.HashCost), services, logger)
	logger.Info("application wired",
		slog.String("storage_type", storageType),
		slog.Bool("redis", redisStore != nil),
	)
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// redisStore may be nil, in which case sessions are kept in memory and sweeps
// run without a lease.
func newWithDependencies(
	store storage.Storage,
	redisStore *redisstorage.Store,
	clk clock.Clock,
	rnd random.Random,
	hash hasher.Hasher,
	services ServiceConfig,
	logger *slog.Logger,
) *App {
	var (
		sessions player.SessionStore = player.NewMemorySessionStore()
		locker   sweeper.Locker
	)
	if redisStore != nil {
		sessions = redisStore
		locker = redisStore
	}

	cc := consistency.New(store, clk, services.Retry, logger)
	gameController := game.NewController(cc, clk, rnd, logger)

	return &App{
		Storage:         store,
		Sessions:        sessions,
		Redis:           redisStore,
		Clock:           clk,
		Random:          rnd,
		Hasher:          hash,
		Consistency:     cc,
		PlayerService:   player.New(cc, sessions, clk, rnd, services.Player, logger),
		GameController:  gameController,
		QueueController: queue.NewController(cc, gameController, clk, services.Queue, logger),
		RoomController:  room.NewController(cc, gameController, hash, clk, rnd, services.Room, logger),
		Sweeper:         sweeper.New(cc, locker, clk, services.Sweeper, logger),
		logger:          logger,
	}
}

// Ping checks that the backing stores are reachable
func (a *App) Ping(ctx context.Context) error {
	err := a.Storage.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.CountQueueEntries(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, a.Storage.Close())
	return errors.Join(errs...)
}
