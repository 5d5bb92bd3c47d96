package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

// RecordingStorage wraps a Storage and records, in order, the lock, lookup
// and insert calls made inside its transactions.
type RecordingStorage struct {
	storage.Storage

	mu    sync.Mutex
	calls []string
}

// NewRecordingStorage wraps inner
func NewRecordingStorage(inner storage.Storage) *RecordingStorage {
	return &RecordingStorage{Storage: inner}
}

func (r *RecordingStorage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return r.Storage.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return fn(ctx, &recordingTx{Tx: tx, rec: r})
	})
}

// Calls returns the recorded method names
func (r *RecordingStorage) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Reset forgets everything recorded so far
func (r *RecordingStorage) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *RecordingStorage) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

type recordingTx struct {
	storage.Tx
	rec *RecordingStorage
}

func (t *recordingTx) LockPlayers(ctx context.Context, ids ...model.PlayerID) (map[model.PlayerID]*model.Player, error) {
	t.rec.record("LockPlayers")
	return t.Tx.LockPlayers(ctx, ids...)
}

func (t *recordingTx) GetQueueEntry(ctx context.Context, playerID model.PlayerID) (*model.QueueEntry, error) {
	t.rec.record("GetQueueEntry")
	return t.Tx.GetQueueEntry(ctx, playerID)
}

func (t *recordingTx) InsertQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	t.rec.record("InsertQueueEntry")
	return t.Tx.InsertQueueEntry(ctx, entry)
}

func (t *recordingTx) LockQueuePair(ctx context.Context, playerID model.PlayerID) (*model.QueueEntry, *model.QueueEntry, error) {
	t.rec.record("LockQueuePair")
	return t.Tx.LockQueuePair(ctx, playerID)
}

func (t *recordingTx) LockQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) ([]*model.QueueEntry, error) {
	t.rec.record("LockQueueEntries")
	return t.Tx.LockQueueEntries(ctx, playerIDs...)
}

func (t *recordingTx) DeleteQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) (int, error) {
	t.rec.record("DeleteQueueEntries")
	return t.Tx.DeleteQueueEntries(ctx, playerIDs...)
}

func (t *recordingTx) InsertRoom(ctx context.Context, room *model.PrivateRoom) error {
	t.rec.record("InsertRoom")
	return t.Tx.InsertRoom(ctx, room)
}

func (t *recordingTx) LockRoom(ctx context.Context, id model.RoomID) (*model.PrivateRoom, error) {
	t.rec.record("LockRoom")
	return t.Tx.LockRoom(ctx, id)
}

func (t *recordingTx) FindWaitingRoom(ctx context.Context, hostID model.PlayerID) (*model.PrivateRoom, error) {
	t.rec.record("FindWaitingRoom")
	return t.Tx.FindWaitingRoom(ctx, hostID)
}

func (t *recordingTx) InsertGame(ctx context.Context, game *model.Game) error {
	t.rec.record("InsertGame")
	return t.Tx.InsertGame(ctx, game)
}

func (t *recordingTx) FindActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error) {
	t.rec.record("FindActiveGame")
	return t.Tx.FindActiveGame(ctx, playerID)
}
