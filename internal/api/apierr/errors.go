package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/rpsarena/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	GameID  string `json:"game_id,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodePlayerNotFound       = "PLAYER_NOT_FOUND"
	CodeInvalidDisplayName   = "INVALID_DISPLAY_NAME"
	CodeNotQueued            = "NOT_QUEUED"
	CodeAlreadyInGame        = "ALREADY_IN_GAME"
	CodeInQueue              = "IN_QUEUE"
	CodeHostingRoom          = "HOSTING_ROOM"
	CodeInvalidSort          = "INVALID_SORT"
	CodeRoomNotFound         = "ROOM_NOT_FOUND"
	CodeInvalidMaxRounds     = "INVALID_MAX_ROUNDS"
	CodeRoomCodeRequired     = "ROOM_CODE_REQUIRED"
	CodeCannotJoinOwnRoom    = "CANNOT_JOIN_OWN_ROOM"
	CodeInvalidRoomCode      = "INVALID_ROOM_CODE"
	CodeRoomAlreadyOpen      = "ROOM_ALREADY_OPEN"
	CodeRoomAlreadyStarted   = "ROOM_ALREADY_STARTED"
	CodeGameNotFound         = "GAME_NOT_FOUND"
	CodeGameNotActive        = "GAME_NOT_ACTIVE"
	CodeNotParticipant       = "NOT_PARTICIPANT"
	CodeInvalidMove          = "INVALID_MOVE"
	CodeMoveAlreadySubmitted = "MOVE_ALREADY_SUBMITTED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeRetryable            = "RETRYABLE"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	if he.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// specific errors, checked in order before falling back to categories
var specific = []struct {
	err    error
	status int
	code   string
	msg    string
}{
	{model.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired session"},
	{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound, "Player not found"},
	{model.ErrInvalidDisplayName, http.StatusBadRequest, CodeInvalidDisplayName, "Display name must be 1-32 characters"},
	{model.ErrNotQueued, http.StatusNotFound, CodeNotQueued, "Not in the queue"},
	{model.ErrInQueue, http.StatusConflict, CodeInQueue, "Leave the matchmaking queue first"},
	{model.ErrHostingRoom, http.StatusConflict, CodeHostingRoom, "Cancel your private room first"},
	{model.ErrInvalidSortKey, http.StatusBadRequest, CodeInvalidSort, "Sort must be rating, wins or winrate"},
	{model.ErrRoomNotFound, http.StatusNotFound, CodeRoomNotFound, "Room not found"},
	{model.ErrInvalidMaxRounds, http.StatusBadRequest, CodeInvalidMaxRounds, "max_rounds must be odd and between 1 and 9"},
	{model.ErrRoomCodeRequired, http.StatusBadRequest, CodeRoomCodeRequired, "Room code required"},
	{model.ErrCannotJoinOwnRoom, http.StatusBadRequest, CodeCannotJoinOwnRoom, "Cannot join your own room"},
	{model.ErrInvalidRoomCode, http.StatusConflict, CodeInvalidRoomCode, "Invalid or expired room code"},
	{model.ErrRoomAlreadyOpen, http.StatusConflict, CodeRoomAlreadyOpen, "You already have an open room"},
	{model.ErrRoomAlreadyStarted, http.StatusConflict, CodeRoomAlreadyStarted, "Room has already started"},
	{model.ErrGameNotFound, http.StatusNotFound, CodeGameNotFound, "Game not found"},
	{model.ErrGameNotActive, http.StatusConflict, CodeGameNotActive, "Game is not active"},
	{model.ErrNotParticipant, http.StatusForbidden, CodeNotParticipant, "You are not in this game"},
	{model.ErrInvalidMove, http.StatusBadRequest, CodeInvalidMove, "Move must be rock, paper or scissors"},
	{model.ErrMoveAlreadySubmitted, http.StatusConflict, CodeMoveAlreadySubmitted, "Already submitted a move this round"},
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var inGame *model.AlreadyInGameError
	if errors.As(err, &inGame) {
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInGame, "Already in a game", string(inGame.GameID)}}
	}
	if errors.Is(err, model.ErrAlreadyInGame) {
		return &httpError{http.StatusConflict, APIError{Code: CodeAlreadyInGame, Message: "Already in a game"}}
	}

	for _, s := range specific {
		if errors.Is(err, s.err) {
			return &httpError{s.status, APIError{Code: s.code, Message: s.msg}}
		}
	}

	// Fall back to the error's category
	switch {
	case errors.Is(err, model.ErrValidation):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: err.Error()}}
	case errors.Is(err, model.ErrAuthorization):
		return &httpError{http.StatusForbidden, APIError{Code: CodeForbidden, Message: err.Error()}}
	case errors.Is(err, model.ErrConflict):
		return &httpError{http.StatusConflict, APIError{Code: CodeConflict, Message: err.Error()}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: err.Error()}}
	case errors.Is(err, model.ErrTransient):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeRetryable, Message: "Temporarily unavailable, please retry"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) error {
	return &httpError{http.StatusForbidden, APIError{Code: CodeForbidden, Message: message}}
}

// NewInternalError creates an internal server error that quotes the request
// id, when there is one, so operators can find the matching log line
func NewInternalError(requestID string) error {
	msg := "Internal server error"
	if requestID != "" {
		msg += " (request " + requestID + ")"
	}
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: msg}}
}
