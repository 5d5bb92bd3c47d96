package queue

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/rpsarena/internal/consistency"
	"github.com/mcoot/rpsarena/internal/dependencies/mocks"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/game"
	"github.com/mcoot/rpsarena/internal/storage"
	"github.com/mcoot/rpsarena/internal/storage/memory"
	"github.com/mcoot/rpsarena/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	games      *game.Controller
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	logger := testutil.NopLogger()
	cc := consistency.New(s.storage, s.clock, consistency.DefaultRetryPolicy(), logger)
	s.games = game.NewController(cc, s.clock, s.random, logger)
	s.controller = NewController(cc, s.games, s.clock, DefaultConfig(), logger)
	s.ctx = context.Background()

	s.seedPlayer("alice", "Alice", 1000)
	s.seedPlayer("bob", "Bob", 1100)
	s.seedPlayer("carol", "Carol", 900)
}

func (s *ControllerSuite) seedPlayer(id, name string, rating int) {
	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertPlayer(ctx, &model.Player{ID: model.PlayerID(id), DisplayName: name, Rating: rating})
	})
	s.Require().NoError(err)
}

func (s *ControllerSuite) queueSize() int {
	n := 0
	_ = s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		n, _ = tx.CountQueueEntries(ctx)
		return nil
	})
	return n
}

// Join tests

func (s *ControllerSuite) TestJoinAloneWaits() {
	status, err := s.controller.Join(s.ctx, "alice")
	s.Require().NoError(err)

	s.True(status.InQueue)
	s.False(status.Matched)
	s.Equal(1, status.PlayersWaiting)
	s.Equal(0, status.WaitSeconds)
}

func (s *ControllerSuite) TestJoinTwiceIsNoOp() {
	_, err := s.controller.Join(s.ctx, "alice")
	s.Require().NoError(err)
	s.clock.Advance(30 * time.Second)

	status, err := s.controller.Join(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(status.InQueue)
	s.Equal(30, status.WaitSeconds)
	s.Equal(1, s.queueSize())
}

func (s *ControllerSuite) TestSecondJoinerIsMatched() {
	s.random.QueueID("game-1")
	_, err := s.controller.Join(s.ctx, "alice")
	s.Require().NoError(err)
	s.clock.Advance(5 * time.Second)

	status, err := s.controller.Join(s.ctx, "bob")
	s.Require().NoError(err)
	s.True(status.Matched)
	s.False(status.InQueue)
	s.Equal(model.GameID("game-1"), *status.GameID)
	s.Equal("Alice", status.OpponentName)
	s.Equal(0, s.queueSize())

	// The first to queue takes the first seat with its queued rating
	g, err := s.games.ActiveGame(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), g.Player1ID)
	s.Equal(1000, g.Player1RatingStart)
	s.Equal(1100, g.Player2RatingStart)
	s.Equal(model.DefaultMaxRounds, g.MaxRounds)

	// The other side learns of the match on its next poll
	other, err := s.controller.PollStatus(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(other.Matched)
	s.Equal("Bob", other.OpponentName)
}

func (s *ControllerSuite) TestJoinWhileInGame() {
	s.random.QueueID("game-1")
	_, _ = s.controller.Join(s.ctx, "alice")
	_, _ = s.controller.Join(s.ctx, "bob")

	_, err := s.controller.Join(s.ctx, "alice")
	s.ErrorIs(err, model.ErrAlreadyInGame)
	s.ErrorIs(err, model.ErrConflict)

	var inGame *model.AlreadyInGameError
	s.Require().ErrorAs(err, &inGame)
	s.Equal(model.GameID("game-1"), inGame.GameID)
}

func (s *ControllerSuite) TestJoinWhileHostingRoom() {
	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertRoom(ctx, &model.PrivateRoom{
			ID: "room-1", HostID: "alice", State: model.RoomStateWaiting,
			ExpiresAt: s.clock.Now().Add(time.Hour), CreatedAt: s.clock.Now(),
		})
	})
	s.Require().NoError(err)

	_, err = s.controller.Join(s.ctx, "alice")
	s.ErrorIs(err, model.ErrHostingRoom)
}

func (s *ControllerSuite) TestJoinAfterHostedRoomLapsed() {
	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertRoom(ctx, &model.PrivateRoom{
			ID: "room-1", HostID: "alice", State: model.RoomStateWaiting,
			ExpiresAt: s.clock.Now().Add(time.Minute), CreatedAt: s.clock.Now(),
		})
	})
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)

	status, err := s.controller.Join(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(status.InQueue)

	s.Require().NoError(s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		room, err := tx.LockRoom(ctx, "room-1")
		s.Require().NoError(err)
		s.Equal(model.RoomStateExpired, room.State)
		return nil
	}))
}

// recordingController builds a controller whose storage calls are recorded
func (s *ControllerSuite) recordingController() (*Controller, *testutil.RecordingStorage) {
	rec := testutil.NewRecordingStorage(s.storage)
	logger := testutil.NopLogger()
	cc := consistency.New(rec, s.clock, consistency.DefaultRetryPolicy(), logger)
	games := game.NewController(cc, s.clock, s.random, logger)
	return NewController(cc, games, s.clock, DefaultConfig(), logger), rec
}

// assertOrder checks that the first calls of each name happen in the given order
func (s *ControllerSuite) assertOrder(calls []string, names ...string) {
	prev := -1
	for _, name := range names {
		i := slices.Index(calls, name)
		s.Require().GreaterOrEqual(i, 0, "%s never called: %v", name, calls)
		s.Greater(i, prev, "%s out of order: %v", name, calls)
		prev = i
	}
}

func (s *ControllerSuite) TestJoinLocksPlayerBeforeChecking() {
	controller, rec := s.recordingController()

	_, err := controller.Join(s.ctx, "alice")
	s.Require().NoError(err)

	calls := rec.Calls()
	s.assertOrder(calls, "LockPlayers", "GetQueueEntry", "FindActiveGame", "InsertQueueEntry")
	locked := slices.Index(calls, "LockPlayers")
	s.Contains(calls[locked:slices.Index(calls, "InsertQueueEntry")], "FindWaitingRoom")
}

func (s *ControllerSuite) TestTryMatchLocksQueueThenPlayersBeforeChecking() {
	s.Require().NoError(s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertQueueEntry(ctx, &model.QueueEntry{PlayerID: "alice", Rating: 1000, JoinedAt: s.clock.Now()}); err != nil {
			return err
		}
		return tx.InsertQueueEntry(ctx, &model.QueueEntry{PlayerID: "bob", Rating: 1100, JoinedAt: s.clock.Now()})
	}))
	controller, rec := s.recordingController()

	gameID, err := controller.TryMatch(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().NotNil(gameID)

	s.assertOrder(rec.Calls(), "LockQueuePair", "LockPlayers", "FindActiveGame", "InsertGame", "DeleteQueueEntries")
}

// Leave tests

func (s *ControllerSuite) TestLeave() {
	_, _ = s.controller.Join(s.ctx, "alice")

	s.Require().NoError(s.controller.Leave(s.ctx, "alice"))
	s.Equal(0, s.queueSize())

	// Leaving again is harmless
	s.Require().NoError(s.controller.Leave(s.ctx, "alice"))

	status, err := s.controller.PollStatus(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(status.InQueue)
	s.False(status.Matched)
	s.False(status.Timeout)
}

// PollStatus tests

func (s *ControllerSuite) TestTimeoutEvicts() {
	_, _ = s.controller.Join(s.ctx, "alice")
	s.clock.Advance(DefaultConfig().Timeout + time.Second)

	status, err := s.controller.PollStatus(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(status.InQueue)
	s.True(status.Timeout)
	s.Equal(0, s.queueSize())
}

func (s *ControllerSuite) TestFIFOOrder() {
	s.random.QueueID("game-1")
	s.Require().NoError(s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertQueueEntry(ctx, &model.QueueEntry{PlayerID: "carol", Rating: 900, JoinedAt: s.clock.Now()}); err != nil {
			return err
		}
		return tx.InsertQueueEntry(ctx, &model.QueueEntry{PlayerID: "bob", Rating: 1100, JoinedAt: s.clock.Now().Add(time.Second)})
	}))
	s.clock.Advance(2 * time.Second)

	// carol has waited longest, so alice is paired with her
	status, err := s.controller.Join(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(status.Matched)
	s.Equal("Carol", status.OpponentName)

	bob, err := s.controller.PollStatus(s.ctx, "bob")
	s.Require().NoError(err)
	s.True(bob.InQueue)
	s.Equal(1, bob.PlayersWaiting)
	s.Equal(1, bob.WaitSeconds)
}

// TryMatch tests

func (s *ControllerSuite) TestTryMatchWithoutOpponent() {
	_, _ = s.controller.Join(s.ctx, "alice")

	gameID, err := s.controller.TryMatch(s.ctx, "alice")
	s.Require().NoError(err)
	s.Nil(gameID)
	s.Equal(1, s.queueSize())
}

func (s *ControllerSuite) TestTryMatchWhenNotQueued() {
	_, _ = s.controller.Join(s.ctx, "alice")

	gameID, err := s.controller.TryMatch(s.ctx, "bob")
	s.Require().NoError(err)
	s.Nil(gameID)
	s.Equal(1, s.queueSize())
}

func (s *ControllerSuite) TestConcurrentTryMatchCreatesExactlyOneGame() {
	s.Require().NoError(s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertQueueEntry(ctx, &model.QueueEntry{PlayerID: "alice", Rating: 1000, JoinedAt: s.clock.Now()}); err != nil {
			return err
		}
		return tx.InsertQueueEntry(ctx, &model.QueueEntry{PlayerID: "bob", Rating: 1100, JoinedAt: s.clock.Now()})
	}))

	var g errgroup.Group
	results := make([]*model.GameID, 20)
	for i := range results {
		player := model.PlayerID("alice")
		if i%2 == 1 {
			player = "bob"
		}
		g.Go(func() error {
			id, err := s.controller.TryMatch(s.ctx, player)
			results[i] = id
			return err
		})
	}
	s.Require().NoError(g.Wait())

	created := 0
	for _, id := range results {
		if id != nil {
			created++
		}
	}
	s.Equal(1, created)
	s.Equal(0, s.queueSize())

	aliceGame, err := s.games.ActiveGame(s.ctx, "alice")
	s.Require().NoError(err)
	bobGame, err := s.games.ActiveGame(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(aliceGame.ID, bobGame.ID)
}

func (s *ControllerSuite) TestTryMatchRetriesTransientFailure() {
	_, _ = s.controller.Join(s.ctx, "alice")
	s.Require().NoError(s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertQueueEntry(ctx, &model.QueueEntry{PlayerID: "bob", Rating: 1100, JoinedAt: s.clock.Now()})
	}))
	s.storage.FailCommits(1, model.ErrTransient)

	gameID, err := s.controller.TryMatch(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().NotNil(gameID)
	s.Equal(0, s.queueSize())
	s.Len(s.clock.Waits(), 1)
}
