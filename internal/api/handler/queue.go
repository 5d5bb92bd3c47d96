package handler

import (
	"net/http"

	"github.com/mcoot/rpsarena/internal/api/middleware"
	"github.com/mcoot/rpsarena/internal/api/response"
	"github.com/mcoot/rpsarena/internal/services/queue"
)

// QueueHandler handles matchmaking endpoints
type QueueHandler struct {
	queue queue.ControllerInterface
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queue queue.ControllerInterface) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Join handles POST /api/v1/queue/join
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	status, err := h.queue.Join(r.Context(), p.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.QueueStatusFromModel(status))
}

// Leave handles POST /api/v1/queue/leave
func (h *QueueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	if err := h.queue.Leave(r.Context(), p.ID); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Status handles GET /api/v1/queue/status
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	status, err := h.queue.PollStatus(r.Context(), p.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.QueueStatusFromModel(status))
}
