package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/rpsarena/internal/api/handler"
	"github.com/mcoot/rpsarena/internal/api/middleware"
	basemiddleware "github.com/mcoot/rpsarena/internal/middleware"
	"github.com/mcoot/rpsarena/internal/services/game"
	"github.com/mcoot/rpsarena/internal/services/player"
	"github.com/mcoot/rpsarena/internal/services/queue"
	"github.com/mcoot/rpsarena/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Players *player.Service
	Queue   queue.ControllerInterface
	Rooms   room.ControllerInterface
	Games   game.ControllerInterface
	Sweeper handler.Sweeper
	// Health is checked by GET /health (optional)
	Health handler.Pinger

	// MaintenanceToken guards /maintenance routes; empty disables them
	MaintenanceToken   string
	CORSAllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Players)
	queueHandler := handler.NewQueueHandler(cfg.Queue)
	roomHandler := handler.NewRoomHandler(cfg.Rooms)
	gameHandler := handler.NewGameHandler(cfg.Games)
	maintenanceHandler := handler.NewMaintenanceHandler(cfg.Sweeper, cfg.Health)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.Players, cfg.Logger)
	loggingMiddleware := basemiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(basemiddleware.RequestID)
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Unauthenticated routes
	api.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/players/{id}/stats", playerHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/matches", playerHandler.Matches).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", playerHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/health", maintenanceHandler.Health).Methods(http.MethodGet)

	// Protected player routes
	me := api.PathPrefix("/players/me").Subrouter()
	me.Use(authMiddleware)
	me.HandleFunc("", playerHandler.GetMe).Methods(http.MethodGet)
	me.HandleFunc("/heartbeat", playerHandler.Heartbeat).Methods(http.MethodPost)

	online := api.PathPrefix("/players/online").Subrouter()
	online.Use(authMiddleware)
	online.HandleFunc("", playerHandler.Online).Methods(http.MethodGet)

	// Matchmaking
	queueRoutes := api.PathPrefix("/queue").Subrouter()
	queueRoutes.Use(authMiddleware)
	queueRoutes.HandleFunc("/join", queueHandler.Join).Methods(http.MethodPost)
	queueRoutes.HandleFunc("/leave", queueHandler.Leave).Methods(http.MethodPost)
	queueRoutes.HandleFunc("/status", queueHandler.Status).Methods(http.MethodGet)

	// Private rooms
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/cancel", roomHandler.Cancel).Methods(http.MethodPost)
	rooms.HandleFunc("/status", roomHandler.Status).Methods(http.MethodGet)

	// Games
	games := api.PathPrefix("/games/{id}").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/moves", gameHandler.Move).Methods(http.MethodPost)
	games.HandleFunc("/forfeit", gameHandler.Forfeit).Methods(http.MethodPost)

	// Operator routes
	maintenance := api.PathPrefix("/maintenance").Subrouter()
	maintenance.Use(middleware.MaintenanceToken(cfg.MaintenanceToken))
	maintenance.HandleFunc("/sweep", maintenanceHandler.Sweep).Methods(http.MethodPost)

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-Maintenance-Token"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}
