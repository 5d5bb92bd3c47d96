package consistency

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsarena/internal/dependencies/mocks"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
	"github.com/mcoot/rpsarena/internal/storage/memory"
	"github.com/mcoot/rpsarena/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.controller = New(s.storage, s.clock, DefaultRetryPolicy(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ControllerSuite) insertPlayer(ctx context.Context, tx storage.Tx) error {
	return tx.InsertPlayer(ctx, &model.Player{ID: "p1", Rating: model.DefaultRating})
}

func (s *ControllerSuite) playerExists() bool {
	exists := false
	_ = s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.GetPlayer(ctx, "p1")
		exists = err == nil
		return nil
	})
	return exists
}

func (s *ControllerSuite) TestSuccessCommitsOnce() {
	calls := 0
	err := s.controller.Run(s.ctx, "test", func(ctx context.Context, tx storage.Tx) error {
		calls++
		return s.insertPlayer(ctx, tx)
	})

	s.Require().NoError(err)
	s.Equal(1, calls)
	s.True(s.playerExists())
	s.Empty(s.clock.Waits())
}

func (s *ControllerSuite) TestTransientFailureIsRetried() {
	s.storage.FailCommits(2, model.Transient(errors.New("deadlock detected")))

	calls := 0
	err := s.controller.Run(s.ctx, "test", func(ctx context.Context, tx storage.Tx) error {
		calls++
		return s.insertPlayer(ctx, tx)
	})

	s.Require().NoError(err)
	s.Equal(3, calls)
	s.True(s.playerExists())
	s.Equal([]time.Duration{50 * time.Millisecond, 100 * time.Millisecond}, s.clock.Waits())
}

func (s *ControllerSuite) TestRetriesExhausted() {
	s.storage.FailCommits(5, model.Transient(errors.New("lock timeout")))

	calls := 0
	err := s.controller.Run(s.ctx, "test", func(ctx context.Context, tx storage.Tx) error {
		calls++
		return s.insertPlayer(ctx, tx)
	})

	s.ErrorIs(err, model.ErrTransient)
	s.Equal(3, calls)
	s.False(s.playerExists())
}

func (s *ControllerSuite) TestBusinessErrorNotRetried() {
	calls := 0
	err := s.controller.Run(s.ctx, "test", func(ctx context.Context, tx storage.Tx) error {
		calls++
		if err := s.insertPlayer(ctx, tx); err != nil {
			return err
		}
		return model.ErrMoveAlreadySubmitted
	})

	s.ErrorIs(err, model.ErrMoveAlreadySubmitted)
	s.ErrorIs(err, model.ErrConflict)
	s.Equal(1, calls)
	s.False(s.playerExists())
}

func (s *ControllerSuite) TestInvariantViolationNotRetried() {
	calls := 0
	err := s.controller.Run(s.ctx, "test", func(ctx context.Context, tx storage.Tx) error {
		calls++
		return model.Invariant("game %s has no open round", "g1")
	})

	s.ErrorIs(err, model.ErrInvariantViolation)
	s.Contains(err.Error(), "g1")
	s.Equal(1, calls)
}

func (s *ControllerSuite) TestCancelledContextStopsRetry() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.storage.FailCommits(5, model.ErrTransient)

	calls := 0
	err := s.controller.Run(ctx, "test", func(ctx context.Context, tx storage.Tx) error {
		calls++
		cancel()
		return nil
	})

	s.ErrorIs(err, context.Canceled)
	s.LessOrEqual(calls, 2)
}

func (s *ControllerSuite) TestBackoffCapped() {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 400 * time.Millisecond, MaxDelay: time.Second}
	controller := New(s.storage, s.clock, policy, testutil.NopLogger())
	s.storage.FailCommits(4, fmt.Errorf("wrapped: %w", model.ErrTransient))

	err := controller.Run(s.ctx, "test", s.insertPlayer)

	s.Require().NoError(err)
	s.Equal([]time.Duration{400 * time.Millisecond, 800 * time.Millisecond, time.Second, time.Second}, s.clock.Waits())
}
