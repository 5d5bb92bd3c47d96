package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/rpsarena/internal/api/apierr"
	"github.com/mcoot/rpsarena/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Panics become a JSON 500 carrying the request id.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError(middleware.RequestIDFrom(r.Context())))
}
