package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"nearby-jobs/internal/pkg/workerpool"
)

func TestShutdownDrainsQueuedInvalidations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := workerpool.New(1, 64, nil)
	pool.Start(ctx)

	var ran atomic.Int32
	const n = 32
	for i := 0; i < n; i++ {
		err := pool.Submit(context.Background(), func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			if ctx.Err() == nil {
				ran.Add(1)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	if err := shutdown(nil, nil, cancel, &Container{Pool: pool}); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := ran.Load(); got != n {
		t.Fatalf("expected all %d queued tasks to run before cancellation, got %d", n, got)
	}
	if ctx.Err() == nil {
		t.Fatalf("expected background context to be cancelled")
	}
}

func TestListenAddr(t *testing.T) {
	cases := map[string]string{"8080": ":8080", ":9000": ":9000"}
	for in, want := range cases {
		got, err := ListenAddr(in)
		if err != nil || got != want {
			t.Fatalf("ListenAddr(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ListenAddr(" "); err == nil {
		t.Fatalf("expected error for empty port")
	}
}
