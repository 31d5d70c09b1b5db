package scheduler

import (
	"context"
	"fmt"
	"time"

	"estatehub/internal/logger"

	"github.com/robfig/cron/v3"
)

var log = logger.New("SCHEDULER")

// jobTimeout bounds a single run so a stuck query cannot pile up runs.
const jobTimeout = 30 * time.Second

// SessionSweeper ends idle and expired admin sessions.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// AddSessionSweep registers the sweep on a standard cron spec or a
// descriptor such as "@every 5m".
func (s *Scheduler) AddSessionSweep(spec string, sweeper SessionSweeper) error {
	if _, err := s.cron.AddFunc(spec, func() { runSweep(sweeper) }); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", spec, err)
	}
	log.Info("session sweep scheduled (%s)", spec)
	return nil
}

func runSweep(sweeper SessionSweeper) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Warn("session sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Info("session sweep ended %d session(s)", n)
	}
	return n
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn("scheduler stop timed out")
	}
}
