// Package scheduler runs the periodic maintenance jobs: expired cache entry
// sweeping, location index reloads and region catalog refreshes.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Sweeper interface {
	Sweep() int
}

type Loader interface {
	Load(ctx context.Context) error
}

// Scheduler wraps robfig/cron. Zero intervals and nil targets disable the
// matching job.
type Scheduler struct {
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration
	jobs    []entry
}

type entry struct {
	name  string
	every time.Duration
	run   func(ctx context.Context)
}

func New(logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger))),
		logger:  logger,
		timeout: time.Minute,
	}
}

func (s *Scheduler) Sweep(every time.Duration, target Sweeper) {
	if target == nil {
		return
	}
	s.add("cache_sweep", every, func(context.Context) {
		if n := target.Sweep(); n > 0 {
			s.logf("[Scheduler] Cache sweep removed=%d", n)
		}
	})
}

func (s *Scheduler) Reload(name string, every time.Duration, target Loader) {
	if target == nil {
		return
	}
	s.add(name, every, func(ctx context.Context) {
		if err := target.Load(ctx); err != nil {
			s.logf("[Scheduler] %s failed err=%v", name, err)
		}
	})
}

func (s *Scheduler) add(name string, every time.Duration, run func(ctx context.Context)) {
	if every <= 0 {
		return
	}
	s.jobs = append(s.jobs, entry{name: name, every: every, run: run})
}

// Start registers the jobs and starts the cron loop. Jobs run with ctx as
// parent until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, e := range s.jobs {
		_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", e.every), func() {
			runCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			e.run(runCtx)
		})
		if err != nil {
			return fmt.Errorf("cron.AddFunc %s: %w", e.name, err)
		}
		s.logf("[Scheduler] Registered job=%s every=%s", e.name, e.every)
	}
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logf("[Scheduler] Stopped")
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	out := make([]string, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, e.name)
	}
	return out
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
