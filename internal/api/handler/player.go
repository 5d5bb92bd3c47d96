package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsarena/internal/api/middleware"
	"github.com/mcoot/rpsarena/internal/api/request"
	"github.com/mcoot/rpsarena/internal/api/response"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/player"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	players *player.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *player.Service) *PlayerHandler {
	return &PlayerHandler{
		players: players,
	}
}

// Create handles POST /api/v1/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	session, p, err := h.players.Create(r.Context(), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session, p))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
}

// Heartbeat handles POST /api/v1/players/me/heartbeat
func (h *PlayerHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	gameID, err := h.players.Heartbeat(r.Context(), p.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	var resp response.Heartbeat
	if gameID != nil {
		id := string(*gameID)
		resp.ActiveGameID = &id
	}
	response.JSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/v1/players/{id}/stats
func (h *PlayerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	stats, err := h.players.Stats(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StatsFromModel(stats))
}

// Matches handles GET /api/v1/players/{id}/matches
func (h *PlayerHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	matches, err := h.players.Matches(r.Context(), id, limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchesFromModel(matches))
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *PlayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sort, err := model.ParseLeaderboardSort(r.URL.Query().Get("sort"))
	if err != nil {
		WriteError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	entries, err := h.players.Leaderboard(r.Context(), sort, limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}

// Online handles GET /api/v1/players/online
func (h *PlayerHandler) Online(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	online, err := h.players.Online(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.OnlinePlayersFromModel(online))
}

// queryInt reads an optional integer query parameter; absent means 0
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewInvalidRequestError(name + " must be an integer")
	}
	return n, nil
}
