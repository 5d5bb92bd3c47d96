package model

import "strings"

// Move is a throw in a round
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// Moves lists every valid move
func Moves() []Move {
	return []Move{MoveRock, MovePaper, MoveScissors}
}

// Valid reports whether m is one of the three moves
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	default:
		return false
	}
}

// ParseMove accepts a move name in any case
func ParseMove(s string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrInvalidMove
	}
	return m, nil
}
