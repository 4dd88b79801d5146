// Package checkpoint runs a periodic background flush of a Database,
// using the same scheduler library the teacher uses for periodic
// chunk rotation.
package checkpoint

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/J-Cake/fsdb/internal/logging"
)

// Flusher is the subset of *fsdb.Database a Scheduler needs. It is an
// interface, not a concrete *fsdb.Database, so internal/checkpoint
// does not import the root package and create an import cycle.
type Flusher interface {
	Flush() error
}

// Scheduler periodically calls Flusher.Flush on a fixed interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	job       gocron.Job
	logger    *slog.Logger
}

// New starts a Scheduler that flushes f every interval.
func New(f Flusher, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	logger = logging.Default(logger).With("component", "checkpoint")

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	job, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := f.Flush(); err != nil {
				logger.Error("checkpoint flush failed", "error", err)
				return
			}
			logger.Debug("checkpoint flush ok")
		}),
		gocron.WithName("fsdb-checkpoint"),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	return &Scheduler{scheduler: s, job: job, logger: logger}, nil
}

// Stop shuts the scheduler down, waiting for any in-flight flush to
// finish.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
