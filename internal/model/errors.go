package model

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of these, so
// callers can branch on either the specific error or its category with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrAuthorization      = errors.New("not authorized")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrTransient          = errors.New("transient failure")
	ErrInvariantViolation = errors.New("invariant violation")
)

var (
	// Player errors
	ErrPlayerNotFound     = fmt.Errorf("%w: player not found", ErrNotFound)
	ErrInvalidDisplayName = fmt.Errorf("%w: display name must be 1-32 characters", ErrValidation)
	ErrInvalidSession     = fmt.Errorf("%w: invalid or expired session", ErrAuthorization)

	// Queue errors
	ErrNotQueued      = fmt.Errorf("%w: player is not in the queue", ErrNotFound)
	ErrAlreadyInGame  = fmt.Errorf("%w: player is already in a game", ErrConflict)
	ErrInQueue        = fmt.Errorf("%w: leave the matchmaking queue first", ErrConflict)
	ErrHostingRoom    = fmt.Errorf("%w: cancel your private room first", ErrConflict)
	ErrInvalidSortKey = fmt.Errorf("%w: unknown leaderboard sort", ErrValidation)

	// Room errors
	ErrRoomNotFound       = fmt.Errorf("%w: room not found", ErrNotFound)
	ErrInvalidMaxRounds   = fmt.Errorf("%w: max rounds must be odd and between 1 and 9", ErrValidation)
	ErrRoomCodeRequired   = fmt.Errorf("%w: room code required", ErrValidation)
	ErrCannotJoinOwnRoom  = fmt.Errorf("%w: cannot join your own room", ErrValidation)
	ErrInvalidRoomCode    = fmt.Errorf("%w: invalid or expired room code", ErrConflict)
	ErrRoomAlreadyOpen    = fmt.Errorf("%w: you already have an open room", ErrConflict)
	ErrRoomAlreadyStarted = fmt.Errorf("%w: room has already started", ErrConflict)

	// Game errors
	ErrGameNotFound         = fmt.Errorf("%w: game not found", ErrNotFound)
	ErrRoundNotFound        = fmt.Errorf("%w: round not found", ErrNotFound)
	ErrGameNotActive        = fmt.Errorf("%w: game is not active", ErrConflict)
	ErrNotParticipant       = fmt.Errorf("%w: you are not in this game", ErrAuthorization)
	ErrInvalidMove          = fmt.Errorf("%w: move must be rock, paper or scissors", ErrValidation)
	ErrMoveAlreadySubmitted = fmt.Errorf("%w: already submitted a move this round", ErrConflict)
)

// AlreadyInGameError reports the game a player is already part of, so callers
// can redirect them to it.
type AlreadyInGameError struct {
	GameID GameID
}

func (e *AlreadyInGameError) Error() string {
	return fmt.Sprintf("player is already in game %s", e.GameID)
}

func (e *AlreadyInGameError) Unwrap() error {
	return ErrAlreadyInGame
}

// Invariant builds an error for internal inconsistencies that should never occur.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

// Transient marks err as a retryable storage failure.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
