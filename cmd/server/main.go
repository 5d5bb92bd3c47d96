package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/rpsarena/internal/api"
	"github.com/mcoot/rpsarena/internal/config"
	"github.com/mcoot/rpsarena/internal/factory"
	"github.com/mcoot/rpsarena/internal/services/player"
	"github.com/mcoot/rpsarena/internal/services/queue"
	"github.com/mcoot/rpsarena/internal/services/room"
	"github.com/mcoot/rpsarena/internal/services/sweeper"
	"github.com/mcoot/rpsarena/internal/storage/postgres"
	redisstorage "github.com/mcoot/rpsarena/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", cfg.LogAttrs()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Players:            app.PlayerService,
		Queue:              app.QueueController,
		Rooms:              app.RoomController,
		Games:              app.GameController,
		Sweeper:            app.Sweeper,
		Health:             app,
		MaintenanceToken:   cfg.MaintenanceToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(router, serverConfig, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx)
	})

	// Periodic sweeps; a zero interval leaves sweeping to the maintenance endpoint
	if cfg.SweepInterval > 0 {
		scheduler, err := sweeper.NewScheduler(app.Sweeper, cfg.SweepInterval, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		g.Go(func() error {
			<-ctx.Done()
			return scheduler.Shutdown()
		})
	}

	return g.Wait()
}

func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		Services: factory.ServiceConfig{
			Player:   player.DefaultConfig(),
			Queue:    queue.DefaultConfig(),
			Room:     room.Config{TTL: cfg.RoomTTL},
			Sweeper:  sweeper.DefaultConfig(),
			HashCost: cfg.RoomCodeHashCost,
		},
	}
	fc.Services.Player.SessionDuration = cfg.SessionTTL
	fc.Services.Player.OnlineWindow = cfg.OnlineWindow
	fc.Services.Queue.Timeout = cfg.QueueTimeout
	fc.Services.Sweeper.QueueTimeout = cfg.QueueTimeout
	fc.Services.Sweeper.InactivityThreshold = cfg.InactivityThreshold

	if cfg.StorageType == config.StoragePostgres {
		pg := postgres.DefaultConfig(cfg.DatabaseURL)
		fc.PostgresConfig = &pg
	}
	if cfg.RedisURL != "" {
		rc := redisstorage.DefaultConfig()
		rc.URL = cfg.RedisURL
		fc.RedisConfig = &rc
	}
	return fc
}
