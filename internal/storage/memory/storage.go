package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Transactions are serialised and work on a private copy of the data, which
// replaces the live copy only when the transaction succeeds.
type Storage struct {
	mu   sync.Mutex
	data *dataset

	// injected commit failures, used to exercise retry paths in tests
	failures   int
	failureErr error
}

type dataset struct {
	players map[model.PlayerID]model.Player
	queue   map[model.PlayerID]model.QueueEntry
	rooms   map[model.RoomID]model.PrivateRoom
	games   map[model.GameID]model.Game
	rounds  map[roundKey]model.Round
	nextSeq int64
}

type roundKey struct {
	gameID model.GameID
	number int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		data: &dataset{
			players: make(map[model.PlayerID]model.Player),
			queue:   make(map[model.PlayerID]model.QueueEntry),
			rooms:   make(map[model.RoomID]model.PrivateRoom),
			games:   make(map[model.GameID]model.Game),
			rounds:  make(map[roundKey]model.Round),
		},
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (d *dataset) clone() *dataset {
	return &dataset{
		players: maps.Clone(d.players),
		queue:   maps.Clone(d.queue),
		rooms:   maps.Clone(d.rooms),
		games:   maps.Clone(d.games),
		rounds:  maps.Clone(d.rounds),
		nextSeq: d.nextSeq,
	}
}

// WithTx runs fn against a snapshot and commits it if fn succeeds
func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := &tx{data: s.data.clone()}
	if err := fn(ctx, work); err != nil {
		return err
	}
	if s.failures > 0 {
		s.failures--
		return s.failureErr
	}
	s.data = work.data
	return nil
}

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// FailCommits makes the next n transactions roll back with err after fn has run
func (s *Storage) FailCommits(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
	s.failureErr = err
}
