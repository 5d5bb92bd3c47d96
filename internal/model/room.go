package model

import (
	"strings"
	"time"
)

// RoomID uniquely identifies a private room
type RoomID string

// RoomState represents the current state of a private room
type RoomState string

const (
	RoomStateWaiting RoomState = "waiting" // Host waiting for a joiner
	RoomStateStarted RoomState = "started" // A game was created from this room
	RoomStateExpired RoomState = "expired" // Cancelled or past its expiry
)

// Room codes avoid characters that are easy to confuse (0/O, 1/I/L)
const (
	RoomCodeLength   = 6
	RoomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// PrivateRoom is a host's invitation to play, joined by code.
// Only a salted hash of the code is kept.
type PrivateRoom struct {
	ID        RoomID
	HostID    PlayerID
	CodeHash  string
	MaxRounds int
	State     RoomState
	ExpiresAt time.Time
	GameID    *GameID
	CreatedAt time.Time
}

// IsJoinable reports whether the room can still be joined at the given time
func (r *PrivateRoom) IsJoinable(now time.Time) bool {
	return r.State == RoomStateWaiting && now.Before(r.ExpiresAt)
}

// CreatedRoom carries the plaintext code back to the host exactly once
type CreatedRoom struct {
	Room PrivateRoom
	Code string
}

// NormalizeRoomCode trims and upper-cases a code and checks its shape
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", ErrRoomCodeRequired
	}
	if len(code) != RoomCodeLength {
		return "", ErrInvalidRoomCode
	}
	for _, c := range code {
		if !strings.ContainsRune(RoomCodeAlphabet, c) {
			return "", ErrInvalidRoomCode
		}
	}
	return code, nil
}

// RoomStatus is the host's view of their latest room
type RoomStatus struct {
	HasRoom      bool
	Matched      bool
	Expired      bool
	RoomID       RoomID
	MaxRounds    int
	ExpiresAt    time.Time
	GameID       *GameID
	OpponentName string
}
