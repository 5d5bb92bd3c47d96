package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) tx(fn func(tx storage.Tx)) {
	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		fn(tx)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StorageSuite) insertPlayer(id string, rating int, lastActive time.Time) {
	s.tx(func(tx storage.Tx) {
		s.Require().NoError(tx.InsertPlayer(s.ctx, &model.Player{
			ID:           model.PlayerID(id),
			DisplayName:  id,
			Rating:       rating,
			LastActiveAt: lastActive,
			CreatedAt:    s.now,
		}))
	})
}

// Transaction tests

func (s *StorageSuite) TestCommitOnSuccess() {
	s.insertPlayer("p1", 1000, s.now)

	s.tx(func(tx storage.Tx) {
		p, err := tx.GetPlayer(s.ctx, "p1")
		s.Require().NoError(err)
		s.Equal(1000, p.Rating)
	})
}

func (s *StorageSuite) TestRollbackOnError() {
	boom := errors.New("boom")

	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		s.Require().NoError(tx.InsertPlayer(ctx, &model.Player{ID: "p1"}))
		return boom
	})
	s.ErrorIs(err, boom)

	s.tx(func(tx storage.Tx) {
		_, err := tx.GetPlayer(s.ctx, "p1")
		s.ErrorIs(err, model.ErrPlayerNotFound)
	})
}

func (s *StorageSuite) TestReturnedRecordsAreCopies() {
	s.insertPlayer("p1", 1000, s.now)

	s.tx(func(tx storage.Tx) {
		p, _ := tx.GetPlayer(s.ctx, "p1")
		p.Rating = 5000
	})

	s.tx(func(tx storage.Tx) {
		p, _ := tx.GetPlayer(s.ctx, "p1")
		s.Equal(1000, p.Rating)
	})
}

func (s *StorageSuite) TestFailCommitsRollsBack() {
	s.storage.FailCommits(1, model.ErrTransient)

	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertPlayer(ctx, &model.Player{ID: "p1"})
	})
	s.ErrorIs(err, model.ErrTransient)

	// Only the next commit was failed
	s.insertPlayer("p2", 1000, s.now)
	s.tx(func(tx storage.Tx) {
		_, err := tx.GetPlayer(s.ctx, "p1")
		s.ErrorIs(err, model.ErrPlayerNotFound)
		_, err = tx.GetPlayer(s.ctx, "p2")
		s.NoError(err)
	})
}

func (s *StorageSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	called := false
	err := s.storage.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		called = true
		return nil
	})
	s.ErrorIs(err, context.Canceled)
	s.False(called)
}

// Queue tests

func (s *StorageSuite) TestInsertQueueEntryAssignsIncreasingSeq() {
	s.tx(func(tx storage.Tx) {
		a := &model.QueueEntry{PlayerID: "a", JoinedAt: s.now}
		b := &model.QueueEntry{PlayerID: "b", JoinedAt: s.now}
		s.Require().NoError(tx.InsertQueueEntry(s.ctx, a))
		s.Require().NoError(tx.InsertQueueEntry(s.ctx, b))
		s.Less(a.Seq, b.Seq)
	})
}

func (s *StorageSuite) TestInsertQueueEntryIsNoOpWhenQueued() {
	s.tx(func(tx storage.Tx) {
		first := &model.QueueEntry{PlayerID: "a", Rating: 1000, JoinedAt: s.now}
		s.Require().NoError(tx.InsertQueueEntry(s.ctx, first))

		again := &model.QueueEntry{PlayerID: "a", Rating: 1500, JoinedAt: s.now.Add(time.Minute)}
		s.Require().NoError(tx.InsertQueueEntry(s.ctx, again))

		e, err := tx.GetQueueEntry(s.ctx, "a")
		s.Require().NoError(err)
		s.Equal(1000, e.Rating)
		s.Equal(first.Seq, again.Seq)

		n, _ := tx.CountQueueEntries(s.ctx)
		s.Equal(1, n)
	})
}

func (s *StorageSuite) TestLockQueuePairPicksOldestOther() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertQueueEntry(s.ctx, &model.QueueEntry{PlayerID: "old", JoinedAt: s.now})
		_ = tx.InsertQueueEntry(s.ctx, &model.QueueEntry{PlayerID: "newer", JoinedAt: s.now.Add(time.Second)})
		_ = tx.InsertQueueEntry(s.ctx, &model.QueueEntry{PlayerID: "me", JoinedAt: s.now.Add(2 * time.Second)})

		self, opponent, err := tx.LockQueuePair(s.ctx, "me")
		s.Require().NoError(err)
		s.Require().NotNil(self)
		s.Require().NotNil(opponent)
		s.Equal(model.PlayerID("me"), self.PlayerID)
		s.Equal(model.PlayerID("old"), opponent.PlayerID)
	})
}

func (s *StorageSuite) TestLockQueuePairMissingEntries() {
	s.tx(func(tx storage.Tx) {
		self, opponent, err := tx.LockQueuePair(s.ctx, "me")
		s.Require().NoError(err)
		s.Nil(self)
		s.Nil(opponent)

		_ = tx.InsertQueueEntry(s.ctx, &model.QueueEntry{PlayerID: "me", JoinedAt: s.now})
		self, opponent, err = tx.LockQueuePair(s.ctx, "me")
		s.Require().NoError(err)
		s.NotNil(self)
		s.Nil(opponent)
	})
}

func (s *StorageSuite) TestDeleteQueueEntriesJoinedBefore() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertQueueEntry(s.ctx, &model.QueueEntry{PlayerID: "stale", JoinedAt: s.now.Add(-10 * time.Minute)})
		_ = tx.InsertQueueEntry(s.ctx, &model.QueueEntry{PlayerID: "fresh", JoinedAt: s.now})

		n, err := tx.DeleteQueueEntriesJoinedBefore(s.ctx, s.now.Add(-5*time.Minute))
		s.Require().NoError(err)
		s.Equal(1, n)

		_, err = tx.GetQueueEntry(s.ctx, "stale")
		s.ErrorIs(err, model.ErrNotQueued)
		_, err = tx.GetQueueEntry(s.ctx, "fresh")
		s.NoError(err)
	})
}

// Room tests

func (s *StorageSuite) TestListJoinableRoomsNewestFirst() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "r1", HostID: "h1", State: model.RoomStateWaiting, CreatedAt: s.now, ExpiresAt: s.now.Add(time.Hour)})
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "r2", HostID: "h2", State: model.RoomStateWaiting, CreatedAt: s.now.Add(time.Minute), ExpiresAt: s.now.Add(time.Hour)})
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "r3", HostID: "h3", State: model.RoomStateStarted, CreatedAt: s.now, ExpiresAt: s.now.Add(time.Hour)})
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "r4", HostID: "h4", State: model.RoomStateWaiting, CreatedAt: s.now, ExpiresAt: s.now})

		rooms, err := tx.ListJoinableRooms(s.ctx, s.now)
		s.Require().NoError(err)
		s.Require().Len(rooms, 2)
		s.Equal(model.RoomID("r2"), rooms[0].ID)
		s.Equal(model.RoomID("r1"), rooms[1].ID)
	})
}

func (s *StorageSuite) TestExpireRooms() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "past", HostID: "h1", State: model.RoomStateWaiting, ExpiresAt: s.now.Add(-time.Second)})
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "future", HostID: "h2", State: model.RoomStateWaiting, ExpiresAt: s.now.Add(time.Second)})

		n, err := tx.ExpireRooms(s.ctx, s.now)
		s.Require().NoError(err)
		s.Equal(1, n)

		r, _ := tx.LockRoom(s.ctx, "past")
		s.Equal(model.RoomStateExpired, r.State)
		r, _ = tx.LockRoom(s.ctx, "future")
		s.Equal(model.RoomStateWaiting, r.State)
	})
}

func (s *StorageSuite) TestLatestRoomIgnoresExpired() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "started", HostID: "h", State: model.RoomStateStarted, CreatedAt: s.now})
		_ = tx.InsertRoom(s.ctx, &model.PrivateRoom{ID: "expired", HostID: "h", State: model.RoomStateExpired, CreatedAt: s.now.Add(time.Minute)})

		r, err := tx.LatestRoom(s.ctx, "h")
		s.Require().NoError(err)
		s.Equal(model.RoomID("started"), r.ID)

		_, err = tx.FindWaitingRoom(s.ctx, "h")
		s.ErrorIs(err, model.ErrRoomNotFound)
	})
}

// Game tests

func (s *StorageSuite) TestListStaleGamesRequiresBothInactive() {
	old := s.now.Add(-time.Hour)
	s.insertPlayer("idle1", 1000, old)
	s.insertPlayer("idle2", 1000, old)
	s.insertPlayer("busy", 1000, s.now)

	s.tx(func(tx storage.Tx) {
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "g1", Player1ID: "idle1", Player2ID: "idle2", Status: model.GameStatusActive})
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "g2", Player1ID: "idle1", Player2ID: "busy", Status: model.GameStatusActive})
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "g3", Player1ID: "idle1", Player2ID: "idle2", Status: model.GameStatusFinished})

		games, err := tx.ListStaleGames(s.ctx, s.now.Add(-10*time.Minute))
		s.Require().NoError(err)
		s.Require().Len(games, 1)
		s.Equal(model.GameID("g1"), games[0].ID)
	})
}

func (s *StorageSuite) TestListConcludedGamesOrdering() {
	t1 := s.now.Add(-2 * time.Hour)
	t2 := s.now.Add(-time.Hour)
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "older", Player1ID: "p", Player2ID: "q", Status: model.GameStatusFinished, FinishedAt: &t1})
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "newer", Player1ID: "q", Player2ID: "p", Status: model.GameStatusFinished, FinishedAt: &t2})
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "abandoned", Player1ID: "p", Player2ID: "q", Status: model.GameStatusAbandoned, FinishedAt: &t2})
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "active", Player1ID: "p", Player2ID: "q", Status: model.GameStatusActive})

		games, err := tx.ListConcludedGames(s.ctx, "p", 10, model.GameStatusFinished)
		s.Require().NoError(err)
		s.Require().Len(games, 2)
		s.Equal(model.GameID("newer"), games[0].ID)
		s.Equal(model.GameID("older"), games[1].ID)
	})
}

func (s *StorageSuite) TestFindActiveGame() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "done", Player1ID: "p", Player2ID: "q", Status: model.GameStatusFinished})
		_, err := tx.FindActiveGame(s.ctx, "p")
		s.ErrorIs(err, model.ErrGameNotFound)

		_ = tx.InsertGame(s.ctx, &model.Game{ID: "live", Player1ID: "q", Player2ID: "p", Status: model.GameStatusActive})
		g, err := tx.FindActiveGame(s.ctx, "p")
		s.Require().NoError(err)
		s.Equal(model.GameID("live"), g.ID)
	})
}

// Round tests

func (s *StorageSuite) TestRoundsAndOrphanCleanup() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertGame(s.ctx, &model.Game{ID: "g1", Player1ID: "p", Player2ID: "q", Status: model.GameStatusActive})
		_ = tx.InsertRound(s.ctx, &model.Round{GameID: "g1", Number: 2})
		_ = tx.InsertRound(s.ctx, &model.Round{GameID: "g1", Number: 1})
		_ = tx.InsertRound(s.ctx, &model.Round{GameID: "gone", Number: 1})

		n, err := tx.DeleteOrphanRounds(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, n)

		rounds, err := tx.ListRounds(s.ctx, "g1")
		s.Require().NoError(err)
		s.Require().Len(rounds, 2)
		s.Equal(1, rounds[0].Number)
		s.Equal(2, rounds[1].Number)

		_, err = tx.LockRound(s.ctx, "gone", 1)
		s.ErrorIs(err, model.ErrRoundNotFound)
	})
}

// Leaderboard tests

func (s *StorageSuite) TestLeaderboardSorts() {
	s.tx(func(tx storage.Tx) {
		_ = tx.InsertPlayer(s.ctx, &model.Player{ID: "a", Rating: 1200, Wins: 2, GamesPlayed: 10})
		_ = tx.InsertPlayer(s.ctx, &model.Player{ID: "b", Rating: 1100, Wins: 5, GamesPlayed: 6})
		_ = tx.InsertPlayer(s.ctx, &model.Player{ID: "c", Rating: 1000, Wins: 1, GamesPlayed: 1})
		_ = tx.InsertPlayer(s.ctx, &model.Player{ID: "new", Rating: 1500})

		byRating, _ := tx.ListLeaderboard(s.ctx, model.SortByRating, 10)
		s.Equal([]model.PlayerID{"a", "b", "c"}, ids(byRating))

		byWins, _ := tx.ListLeaderboard(s.ctx, model.SortByWins, 10)
		s.Equal([]model.PlayerID{"b", "a", "c"}, ids(byWins))

		byRate, _ := tx.ListLeaderboard(s.ctx, model.SortByWinRate, 2)
		s.Equal([]model.PlayerID{"c", "b"}, ids(byRate))

		above, _ := tx.CountPlayersRatedAbove(s.ctx, 1100)
		s.Equal(2, above)
	})
}

func ids(players []*model.Player) []model.PlayerID {
	out := make([]model.PlayerID, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}
