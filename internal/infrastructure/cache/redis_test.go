package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"nearby-jobs/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(&redis.Options{Addr: mr.Addr()}, time.Minute, nil)
	if r.Client() == nil {
		t.Fatalf("expected connected client")
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedis_SetGetWithTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	if err := r.SetJSON(ctx, "k", []int{1, 2}, 0, "job:1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out []int
	hit, err := r.GetJSON(ctx, "k", &out)
	if err != nil || !hit || len(out) != 2 {
		t.Fatalf("expected hit, got hit=%v err=%v out=%v", hit, err, out)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
	if ok, _ := mr.SIsMember(tagKeyPrefix+"job:1", "k"); !ok {
		t.Fatalf("expected tag membership")
	}

	mr.FastForward(time.Minute + time.Second)
	hit, err = r.GetJSON(ctx, "k", &out)
	if err != nil || hit {
		t.Fatalf("expected miss after ttl, got hit=%v err=%v", hit, err)
	}
}

func TestRedis_DeleteTag(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	_ = r.SetJSON(ctx, "a", 1, 0, "cell:1:1", "job:1")
	_ = r.SetJSON(ctx, "b", 2, 0, "cell:1:1")
	_ = r.SetJSON(ctx, "c", 3, 0, "job:3")

	n, err := r.DeleteTag(ctx, "cell:1:1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got n=%d err=%v", n, err)
	}
	if mr.Exists("a") || mr.Exists("b") || mr.Exists(tagKeyPrefix+"cell:1:1") {
		t.Fatalf("tagged keys and tag set should be gone")
	}
	if !mr.Exists("c") {
		t.Fatalf("untagged key should survive")
	}

	n, err = r.DeleteTag(ctx, "unknown")
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
}

func TestRedis_DeleteTagRacingWrites(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = r.SetJSON(ctx, "k"+strconv.Itoa(i), i, 0, "cell:1:1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, _ = r.DeleteTag(ctx, "cell:1:1")
		}
	}()
	wg.Wait()

	for i := 0; i < n; i++ {
		k := "k" + strconv.Itoa(i)
		if !mr.Exists(k) {
			continue
		}
		if ok, _ := mr.SIsMember(tagKeyPrefix+"cell:1:1", k); !ok {
			t.Fatalf("live key %s lost its tag membership", k)
		}
	}
}

func TestRedis_SetIfNotExists(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	ok, err := r.SetIfNotExists(ctx, "lock", "1", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("expected acquire, got ok=%v err=%v", ok, err)
	}
	ok, _ = r.SetIfNotExists(ctx, "lock", "1", 5*time.Second)
	if ok {
		t.Fatalf("expected contended acquire to fail")
	}
	mr.FastForward(6 * time.Second)
	ok, _ = r.SetIfNotExists(ctx, "lock", "1", 5*time.Second)
	if !ok {
		t.Fatalf("expected acquire after expiry")
	}
}

func TestRedis_BypassWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	r := NewRedis(&redis.Options{Addr: addr, DialTimeout: 100 * time.Millisecond}, 0, nil)
	if r.Client() != nil {
		t.Fatalf("expected bypass mode")
	}
	if err := r.SetJSON(ctx, "k", 1, 0, "t"); err != nil {
		t.Fatalf("bypass set should not fail: %v", err)
	}
	var v int
	if hit, err := r.GetJSON(ctx, "k", &v); hit || err != nil {
		t.Fatalf("bypass get should miss, got hit=%v err=%v", hit, err)
	}
	if err := r.Ping(ctx); err == nil {
		t.Fatalf("expected ping error in bypass mode")
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions(config.RedisConfig{URL: "redis://:secret@cache:6380/2"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = RedisOptions(config.RedisConfig{})
	if err != nil || opts.Addr != "localhost:6379" {
		t.Fatalf("expected default addr, got %+v err=%v", opts, err)
	}

	if _, err := RedisOptions(config.RedisConfig{URL: "http://nope"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
