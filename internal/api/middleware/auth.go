package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/rpsarena/internal/api/apierr"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/player"
)

type contextKey string

const (
	playerContextKey  contextKey = "player"
	sessionContextKey contextKey = "session"
)

// SessionCookie is the cookie name accepted in place of a bearer token
const SessionCookie = "session"

// Auth creates authentication middleware. Every authenticated request also
// counts as player activity.
func Auth(players *player.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := r.Context()
			session, err := players.ValidateSession(ctx, token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			p, err := players.Get(ctx, session.PlayerID)
			if err != nil {
				// A session whose player is gone is as good as no session
				if apierr.Status(err) == http.StatusNotFound {
					err = model.ErrInvalidSession
				}
				apierr.WriteError(w, err)
				return
			}

			if err := players.Touch(ctx, p.ID); err != nil {
				logger.Warn("failed to record activity",
					slog.String("player_id", string(p.ID)),
					slog.String("error", err.Error()),
				)
			}

			// Add session and player to context
			ctx = context.WithValue(ctx, sessionContextKey, session)
			ctx = context.WithValue(ctx, playerContextKey, p)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MaintenanceToken guards operator endpoints with a shared secret. An empty
// token disables them.
func MaintenanceToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("X-Maintenance-Token") != token {
				apierr.WriteError(w, apierr.NewForbiddenError("maintenance token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
