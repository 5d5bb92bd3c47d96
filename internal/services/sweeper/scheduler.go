package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler calls Sweep on a fixed interval. A run that is still going
// when the next is due delays it rather than overlapping.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler registers the sweep job. Call Start to begin running it.
func NewScheduler(service *Service, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := service.Sweep(ctx); err != nil {
				logger.Error("scheduled sweep failed", slog.String("error", err.Error()))
			}
		}),
		gocron.WithName("staleness-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	return &Scheduler{scheduler: sched, logger: logger}, nil
}

// Start begins running the job in the background
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("sweep scheduler started")
}

// Shutdown stops the scheduler and waits for a running sweep to finish
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
