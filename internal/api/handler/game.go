package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsarena/internal/api/middleware"
	"github.com/mcoot/rpsarena/internal/api/request"
	"github.com/mcoot/rpsarena/internal/api/response"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/game"
)

// GameHandler handles game endpoints
type GameHandler struct {
	games game.ControllerInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(games game.ControllerInterface) *GameHandler {
	return &GameHandler{games: games}
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	view, err := h.games.GetState(r.Context(), gameID, p.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(view))
}

// Move handles POST /api/v1/games/{id}/moves
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	var req request.SubmitMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	move, err := model.ParseMove(req.Move)
	if err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.games.SubmitMove(r.Context(), gameID, p.ID, move)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(view))
}

// Forfeit handles POST /api/v1/games/{id}/forfeit
func (h *GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	if err := h.games.Forfeit(r.Context(), gameID, p.ID); err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.games.GetState(r.Context(), gameID, p.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(view))
}
