package events

import (
	"context"
	"testing"
	"time"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type chanHandler chan job.Change

func (h chanHandler) OnRemoteChange(_ context.Context, c job.Change) { h <- c }

func newClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisBus_DeliversRemoteChangesOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewRedisBus(newClient(t, mr), "jobs:changed", nil)
	b := NewRedisBus(newClient(t, mr), "jobs:changed", nil)

	lb, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer lb.Close()
	la, err := a.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer la.Close()

	gotB := make(chanHandler, 4)
	gotA := make(chanHandler, 4)
	go lb.Run(ctx, gotB)
	go la.Run(ctx, gotA)

	p := geo.Point{Lat: 1.5, Lng: 2.5}
	change := job.Change{JobID: uuid.New(), Kind: job.ChangeCreated, NewPoint: &p, At: time.Now().UTC()}
	if err := a.Publish(ctx, change); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case c := <-gotB:
		if c.JobID != change.JobID || c.Kind != job.ChangeCreated || c.NewPoint == nil || *c.NewPoint != p || c.OldPoint != nil {
			t.Fatalf("unexpected change %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("remote instance did not receive the change")
	}

	select {
	case c := <-gotA:
		t.Fatalf("publisher must skip its own change, got %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisBus_NilClient(t *testing.T) {
	bus := NewRedisBus(nil, "jobs:changed", nil)
	if err := bus.Publish(context.Background(), job.Change{JobID: uuid.New()}); err != nil {
		t.Fatalf("publish without client should be a no-op: %v", err)
	}
	if _, err := bus.Subscribe(context.Background()); err != ErrNoClient {
		t.Fatalf("expected ErrNoClient, got %v", err)
	}
}
