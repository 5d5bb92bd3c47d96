package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsarena/internal/model"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", model.ErrInvalidMove, http.StatusBadRequest},
		{"session", model.ErrInvalidSession, http.StatusUnauthorized},
		{"authorization", model.ErrNotParticipant, http.StatusForbidden},
		{"conflict", model.ErrMoveAlreadySubmitted, http.StatusConflict},
		{"not found", model.ErrGameNotFound, http.StatusNotFound},
		{"wrapped", fmt.Errorf("join: %w", model.ErrRoomAlreadyStarted), http.StatusConflict},
		{"transient", model.Transient(errors.New("deadlock")), http.StatusServiceUnavailable},
		{"invariant", model.Invariant("no round"), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"bare category", model.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestAlreadyInGameCarriesGameID(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, &model.AlreadyInGameError{GameID: "g-42"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeAlreadyInGame, body.Error.Code)
	assert.Equal(t, "g-42", body.Error.GameID)
}

func TestTransientIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("game.submit_move: gave up after 3 attempts: %w", model.Transient(errors.New("lock timeout"))))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeRetryable, body.Error.Code)
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body.Error.Message)
}
