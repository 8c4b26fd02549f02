package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct{ n atomic.Int32 }

func (c *countingSweeper) Sweep() int {
	c.n.Add(1)
	return 0
}

type countingLoader struct{ n atomic.Int32 }

func (c *countingLoader) Load(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(nil)
	sw := &countingSweeper{}
	ld := &countingLoader{}
	s.Sweep(time.Second, sw)
	s.Reload("index_reload", time.Second, ld)
	s.Reload("disabled", 0, ld)
	s.Reload("nil_target", time.Second, nil)

	if got := s.Jobs(); len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %v", got)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && (sw.n.Load() == 0 || ld.n.Load() == 0) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if sw.n.Load() == 0 || ld.n.Load() == 0 {
		t.Fatalf("expected both jobs to run, sweep=%d load=%d", sw.n.Load(), ld.n.Load())
	}
}
