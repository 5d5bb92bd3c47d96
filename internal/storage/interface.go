package storage

import (
	"context"
	"time"

	"github.com/mcoot/rpsarena/internal/model"
)

// Storage defines the interface for data persistence.
// All reads and writes happen inside a transaction.
type Storage interface {
	// WithTx runs fn in a single all-or-nothing transaction. Changes are
	// committed only when fn returns nil. Retryable backend failures are
	// returned wrapping model.ErrTransient.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Close() error
}

// Tx is the set of operations available inside a transaction.
//
// Lock* methods take exclusive row locks held until the transaction ends.
// Callers acquire locks in a fixed order: queue entries (by Seq), room,
// game, round, players (by id). Paths that create a game, a room or a queue
// entry lock the players involved before checking what they are already
// doing, so those checks cannot race.
type Tx interface {
	// Player operations
	InsertPlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	LockPlayers(ctx context.Context, ids ...model.PlayerID) (map[model.PlayerID]*model.Player, error)
	UpdatePlayer(ctx context.Context, player *model.Player) error
	TouchPlayer(ctx context.Context, id model.PlayerID, at time.Time) error
	ListLeaderboard(ctx context.Context, sort model.LeaderboardSort, limit int) ([]*model.Player, error)
	CountPlayersRatedAbove(ctx context.Context, rating int) (int, error)
	// ListOnlinePlayers returns players active at or after since, highest rated first
	ListOnlinePlayers(ctx context.Context, since time.Time, limit int) ([]*model.Player, error)

	// Queue operations
	GetQueueEntry(ctx context.Context, playerID model.PlayerID) (*model.QueueEntry, error)
	// InsertQueueEntry assigns entry.Seq. It is a no-op if the player is already queued.
	InsertQueueEntry(ctx context.Context, entry *model.QueueEntry) error
	// LockQueuePair locks the player's entry and the oldest other entry in
	// ascending Seq order. Either result is nil if that entry does not exist.
	LockQueuePair(ctx context.Context, playerID model.PlayerID) (self, opponent *model.QueueEntry, err error)
	// LockQueueEntries locks the given players' entries in ascending Seq
	// order and returns those that exist.
	LockQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) ([]*model.QueueEntry, error)
	DeleteQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) (int, error)
	DeleteQueueEntriesJoinedBefore(ctx context.Context, cutoff time.Time) (int, error)
	CountQueueEntries(ctx context.Context) (int, error)

	// Room operations
	InsertRoom(ctx context.Context, room *model.PrivateRoom) error
	UpdateRoom(ctx context.Context, room *model.PrivateRoom) error
	LockRoom(ctx context.Context, id model.RoomID) (*model.PrivateRoom, error)
	FindWaitingRoom(ctx context.Context, hostID model.PlayerID) (*model.PrivateRoom, error)
	// LatestRoom returns the host's newest waiting or started room
	LatestRoom(ctx context.Context, hostID model.PlayerID) (*model.PrivateRoom, error)
	// ListJoinableRooms returns waiting rooms not yet expired at now, newest first
	ListJoinableRooms(ctx context.Context, now time.Time) ([]*model.PrivateRoom, error)
	ExpireRooms(ctx context.Context, now time.Time) (int, error)

	// Game operations
	InsertGame(ctx context.Context, game *model.Game) error
	UpdateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	LockGame(ctx context.Context, id model.GameID) (*model.Game, error)
	FindActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error)
	// ListStaleGames returns active games whose players were both last active before cutoff
	ListStaleGames(ctx context.Context, cutoff time.Time) ([]*model.Game, error)
	// ListConcludedGames returns the player's games in the given statuses, most recently finished first
	ListConcludedGames(ctx context.Context, playerID model.PlayerID, limit int, statuses ...model.GameStatus) ([]*model.Game, error)

	// Round operations
	InsertRound(ctx context.Context, round *model.Round) error
	UpdateRound(ctx context.Context, round *model.Round) error
	LockRound(ctx context.Context, gameID model.GameID, number int) (*model.Round, error)
	ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error)
	// DeleteOrphanRounds removes rounds whose game no longer exists
	DeleteOrphanRounds(ctx context.Context) (int, error)
}
