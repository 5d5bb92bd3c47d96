package model

import "time"

// GameID uniquely identifies a game
type GameID string

// GameStatus represents the lifecycle phase of a game
type GameStatus string

const (
	GameStatusActive    GameStatus = "active"    // Rounds still being played
	GameStatusFinished  GameStatus = "finished"  // Decided by score
	GameStatusAbandoned GameStatus = "abandoned" // Forfeited or swept for inactivity
)

const (
	DefaultMaxRounds = 3
	MaxRoundsLimit   = 9
)

// ValidateMaxRounds checks that a best-of-N length is odd and within bounds
func ValidateMaxRounds(n int) error {
	if n < 1 || n > MaxRoundsLimit || n%2 == 0 {
		return ErrInvalidMaxRounds
	}
	return nil
}

// Game is a best-of-N match between two players
type Game struct {
	ID           GameID
	Player1ID    PlayerID
	Player2ID    PlayerID
	Player1Score int
	Player2Score int
	MaxRounds    int
	CurrentRound int
	Status       GameStatus
	WinnerID     *PlayerID // nil while active, and for drawn games

	// Ratings at game creation, never updated afterwards
	Player1RatingStart int
	Player2RatingStart int

	// RatingApplied is set when the game's outcome was fed into the rating engine
	RatingApplied bool

	Private bool
	RoomID  *RoomID

	CreatedAt  time.Time
	FinishedAt *time.Time
}

// WinsNeeded returns the number of round wins that decides the game
func (g *Game) WinsNeeded() int {
	return (g.MaxRounds + 1) / 2
}

// Seat returns 1 or 2 for a participant, 0 for anyone else
func (g *Game) Seat(playerID PlayerID) int {
	switch playerID {
	case g.Player1ID:
		return 1
	case g.Player2ID:
		return 2
	default:
		return 0
	}
}

// IsParticipant reports whether the player is in this game
func (g *Game) IsParticipant(playerID PlayerID) bool {
	return g.Seat(playerID) != 0
}

// OpponentOf returns the other participant
func (g *Game) OpponentOf(playerID PlayerID) PlayerID {
	if playerID == g.Player1ID {
		return g.Player2ID
	}
	return g.Player1ID
}

// ScoreOf returns a participant's round wins
func (g *Game) ScoreOf(playerID PlayerID) int {
	if playerID == g.Player1ID {
		return g.Player1Score
	}
	return g.Player2Score
}

// RatingStartOf returns a participant's rating snapshot
func (g *Game) RatingStartOf(playerID PlayerID) int {
	if playerID == g.Player1ID {
		return g.Player1RatingStart
	}
	return g.Player2RatingStart
}

// IsActive reports whether rounds can still be played
func (g *Game) IsActive() bool {
	return g.Status == GameStatusActive
}

// LeaderByScore returns the participant with more round wins, or nil on a tie
func (g *Game) LeaderByScore() *PlayerID {
	switch {
	case g.Player1Score > g.Player2Score:
		id := g.Player1ID
		return &id
	case g.Player2Score > g.Player1Score:
		id := g.Player2ID
		return &id
	default:
		return nil
	}
}

// Round is one exchange of moves within a game
type Round struct {
	GameID      GameID
	Number      int
	Player1Move *Move
	Player2Move *Move
	WinnerID    *PlayerID
	IsDraw      bool
	CompletedAt *time.Time
}

// MoveOf returns the move in the given seat, nil if not yet submitted
func (r *Round) MoveOf(seat int) *Move {
	if seat == 1 {
		return r.Player1Move
	}
	return r.Player2Move
}

// SetMove fills the given seat's slot
func (r *Round) SetMove(seat int, move Move) {
	m := move
	if seat == 1 {
		r.Player1Move = &m
	} else {
		r.Player2Move = &m
	}
}

// BothMoved reports whether both slots are filled
func (r *Round) BothMoved() bool {
	return r.Player1Move != nil && r.Player2Move != nil
}

// IsComplete reports whether the round has been resolved
func (r *Round) IsComplete() bool {
	return r.CompletedAt != nil
}
