package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/rpsarena/internal/api/middleware"
	"github.com/mcoot/rpsarena/internal/api/request"
	"github.com/mcoot/rpsarena/internal/api/response"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/room"
)

// RoomHandler handles private room endpoints
type RoomHandler struct {
	rooms room.ControllerInterface
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms room.ControllerInterface) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.MaxRounds == 0 {
		req.MaxRounds = model.DefaultMaxRounds
	}

	created, err := h.rooms.CreateRoom(r.Context(), p.ID, req.MaxRounds)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.CreatedRoomFromModel(created))
}

// Join handles POST /api/v1/rooms/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	gameID, err := h.rooms.JoinRoom(r.Context(), p.ID, req.Code)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.JoinedRoom{GameID: string(*gameID)})
}

// Cancel handles POST /api/v1/rooms/cancel
func (h *RoomHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	if err := h.rooms.CancelRoom(r.Context(), p.ID); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Status handles GET /api/v1/rooms/status
func (h *RoomHandler) Status(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	status, err := h.rooms.RoomStatus(r.Context(), p.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomStatusFromModel(status))
}
