package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory(ttl time.Duration) (*Memory, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(ttl)
	m.now = c.Now
	return m, c
}

func TestMemory_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	m, c := newTestMemory(time.Minute)

	if err := m.SetJSON(ctx, "k", map[string]int{"a": 1}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out map[string]int
	hit, err := m.GetJSON(ctx, "k", &out)
	if err != nil || !hit || out["a"] != 1 {
		t.Fatalf("expected hit, got hit=%v err=%v out=%v", hit, err, out)
	}

	c.Advance(time.Minute)
	hit, err = m.GetJSON(ctx, "k", &out)
	if err != nil || hit {
		t.Fatalf("expected expired miss, got hit=%v err=%v", hit, err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected expired entry to be removed on read")
	}
}

func TestMemory_DeleteTag(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(time.Minute)

	_ = m.SetJSON(ctx, "a", 1, 0, "job:1", "cell:0:0")
	_ = m.SetJSON(ctx, "b", 2, 0, "job:2", "cell:0:0")
	_ = m.SetJSON(ctx, "c", 3, 0, "job:3")

	n, err := m.DeleteTag(ctx, "cell:0:0")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got n=%d err=%v", n, err)
	}

	var v int
	for _, k := range []string{"a", "b"} {
		if hit, _ := m.GetJSON(ctx, k, &v); hit {
			t.Fatalf("%s should be gone", k)
		}
	}
	if hit, _ := m.GetJSON(ctx, "c", &v); !hit || v != 3 {
		t.Fatalf("untagged key should survive")
	}

	n, _ = m.DeleteTag(ctx, "cell:0:0")
	if n != 0 {
		t.Fatalf("second delete should be a no-op, got %d", n)
	}
	n, _ = m.DeleteTag(ctx, "job:1")
	if n != 0 {
		t.Fatalf("stale membership should not count, got %d", n)
	}
}

func TestMemory_SetIfNotExists(t *testing.T) {
	ctx := context.Background()
	m, c := newTestMemory(time.Minute)

	ok, err := m.SetIfNotExists(ctx, "lock", "1", 10*time.Second)
	if err != nil || !ok {
		t.Fatalf("expected first acquire, got ok=%v err=%v", ok, err)
	}
	ok, _ = m.SetIfNotExists(ctx, "lock", "1", 10*time.Second)
	if ok {
		t.Fatalf("expected second acquire to fail")
	}
	c.Advance(11 * time.Second)
	ok, _ = m.SetIfNotExists(ctx, "lock", "1", 10*time.Second)
	if !ok {
		t.Fatalf("expected acquire after expiry")
	}
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	m, c := newTestMemory(time.Minute)

	_ = m.SetJSON(ctx, "old", 1, 10*time.Second, "job:1")
	_ = m.SetJSON(ctx, "new", 2, time.Hour, "job:1")
	c.Advance(time.Minute)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 live entry, got %d", m.Len())
	}
	if n, _ := m.DeleteTag(ctx, "job:1"); n != 1 {
		t.Fatalf("expected surviving membership, got %d", n)
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := string(rune('a' + (i+j)%26))
				_ = m.SetJSON(ctx, key, j, 0, "t")
				var v int
				_, _ = m.GetJSON(ctx, key, &v)
				if j%50 == 0 {
					_, _ = m.DeleteTag(ctx, "t")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestMemory_SweepKeepsMembershipOfConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(time.Minute)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				m.Sweep()
			}
		}
	}()

	const n = 500
	for i := 0; i < n; i++ {
		_ = m.SetJSON(ctx, "k"+strconv.Itoa(i), i, 0, "t")
	}
	close(stop)
	wg.Wait()

	if got, _ := m.DeleteTag(ctx, "t"); got != n {
		t.Fatalf("expected all %d entries reachable through their tag, got %d", n, got)
	}
	if m.Len() != 0 {
		t.Fatalf("expected no entry to escape invalidation, %d left", m.Len())
	}
}
