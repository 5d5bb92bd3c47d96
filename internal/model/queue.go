package model

import "time"

// QueueEntry is a player waiting for an open match.
// Seq is assigned on insert and gives entries a total order for locking.
type QueueEntry struct {
	Seq      int64
	PlayerID PlayerID
	Rating   int
	JoinedAt time.Time
}

// QueueStatus is what a polling player sees
type QueueStatus struct {
	InQueue        bool
	Matched        bool
	Timeout        bool
	GameID         *GameID
	OpponentName   string
	WaitSeconds    int
	PlayersWaiting int
}

// SweepReport counts what a staleness sweep cleaned up
type SweepReport struct {
	QueueEvicted   int
	GamesAbandoned int
	RoomsExpired   int
	RoundsDeleted  int
	Skipped        bool // another instance held the sweep lease
}
