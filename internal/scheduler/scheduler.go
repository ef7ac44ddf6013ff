package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// ErrRunning is returned by RunNow while another run is in progress.
var ErrRunning = errors.New("job already running")

// Scheduler runs a job on a cron spec. Scheduled, triggered and manual runs
// never overlap: a run that would start while another is in progress is
// skipped.
type Scheduler struct {
	cron    *cron.Cron
	jobID   cron.EntryID
	job     Job
	name    string
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.Mutex
	wg      sync.WaitGroup
}

// New creates a scheduler for spec, which accepts five-field cron
// expressions and descriptors such as "@every 6h" or "@daily".
func New(name, spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("job must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, job: job, name: name, logger: logger}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	id, err := c.AddFunc(spec, s.run)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.jobID = id
	return s, nil
}

// Start begins cron execution. Runs stop receiving a live context once ctx
// is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
	s.cron.Start()
	s.logger.Info("scheduler started", "job", s.name, "next", s.Next().Format(time.RFC3339))
}

// Stop stops the scheduler and waits for scheduled and triggered runs to
// finish.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}

// Next returns the next scheduled run time.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.jobID).Next
}

// RunNow runs the job once in the calling goroutine. It returns ErrRunning
// without running the job if another run is in progress.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.running.TryLock() {
		return ErrRunning
	}
	defer s.running.Unlock()
	return s.job(ctx)
}

// Trigger starts a run in the background, as if it were scheduled now. Stop
// waits for it.
func (s *Scheduler) Trigger() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
}

func (s *Scheduler) run() {
	if !s.running.TryLock() {
		s.logger.Debug("job still running, skipping run", "job", s.name)
		return
	}
	defer s.running.Unlock()

	start := time.Now()
	if err := s.job(s.ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", s.name, "error", err)
		return
	}
	s.logger.Debug("scheduled job finished", "job", s.name, "duration", time.Since(start).Round(time.Millisecond))
}
