// Package consistency runs storage transactions with bounded retry of
// transient failures such as deadlocks and lock timeouts.
package consistency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

// TxFunc is the body of a transaction
type TxFunc func(ctx context.Context, tx storage.Tx) error

// RetryPolicy bounds how transient failures are retried
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration // delay before the second attempt, doubled each time
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns three attempts with 50ms and 100ms backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    time.Second,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Controller wraps every multi-record operation in a transaction
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	policy  RetryPolicy
	logger  *slog.Logger
}

// New creates a consistency controller
func New(
	storage storage.Storage,
	clock clock.Clock,
	policy RetryPolicy,
	logger *slog.Logger,
) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Controller{
		storage: storage,
		clock:   clock,
		policy:  policy,
		logger:  logger,
	}
}

// Run executes fn in a transaction. fn may run more than once, so it must
// reset any state it captures from the enclosing scope.
func (c *Controller) Run(ctx context.Context, op string, fn TxFunc) error {
	for attempt := 1; ; attempt++ {
		err := c.storage.WithTx(ctx, fn)
		if err == nil {
			return nil
		}

		if errors.Is(err, model.ErrInvariantViolation) {
			c.logger.Error("invariant violation",
				slog.String("op", op),
				slog.String("error", err.Error()),
			)
			return err
		}
		if !errors.Is(err, model.ErrTransient) {
			return err
		}

		if attempt >= c.policy.MaxAttempts {
			c.logger.Warn("transaction retries exhausted",
				slog.String("op", op),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("%s: gave up after %d attempts: %w", op, attempt, err)
		}

		delay := c.policy.delay(attempt)
		c.logger.Debug("retrying transaction",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(delay):
		}
	}
}
