package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"nearby-jobs/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL     = 600 * time.Second
	DefaultLockTTL = 30 * time.Second

	tagKeyPrefix = "cache:tag:"
)

// Redis is the shared store. When the server cannot be reached at startup
// it degrades to a bypass store: reads miss and writes are dropped.
type Redis struct {
	client *redis.Client
	logger *log.Logger

	defaultTTL        time.Duration
	warnedUnavailable atomic.Bool
}

// RedisOptions builds client options from REDIS_URL, falling back to host/port.
func RedisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if u := strings.TrimSpace(cfg.URL); u != "" {
		opts, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("redis.ParseURL: %w", err)
		}
		return opts, nil
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func NewRedis(opts *redis.Options, defaultTTL time.Duration, logger *log.Logger) *Redis {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Printf("[Cache] Redis unavailable, bypassing cache: %v", err)
		}
		_ = client.Close()
		return &Redis{client: nil, logger: logger, defaultTTL: defaultTTL}
	}

	return &Redis{client: client, logger: logger, defaultTTL: defaultTTL}
}

// Client exposes the underlying client for other Redis users (pub/sub).
// It is nil when the store runs in bypass mode.
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil || r.logger == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Printf("[Cache] Redis unavailable, bypassing cache: %v", err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return errors.New("redis unavailable")
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON writes the value and its tag memberships in one MULTI/EXEC.
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if r.isUnavailable() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, b, ttl)
		for _, t := range tags {
			tk := tagKeyPrefix + t
			pipe.SAdd(ctx, tk, key)
			// Every entry uses the same TTL, so the newest member always
			// expires last.
			pipe.Expire(ctx, tk, ttl)
		}
		return nil
	})
	if err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// deleteTagScript reads and drops a tag set in one step, so a SetJSON
// racing with it either lands before (and is deleted) or after (and keeps
// its membership).
var deleteTagScript = redis.NewScript(`
local keys = redis.call('SMEMBERS', KEYS[1])
local n = 0
for i = 1, #keys, 500 do
	n = n + redis.call('DEL', unpack(keys, i, math.min(i + 499, #keys)))
end
redis.call('DEL', KEYS[1])
return n
`)

// DeleteTag removes every key tagged with tag along with the tag set itself.
func (r *Redis) DeleteTag(ctx context.Context, tag string) (int, error) {
	if r.isUnavailable() {
		return 0, nil
	}
	n, err := deleteTagScript.Run(ctx, r.client, []string{tagKeyPrefix + tag}).Int()
	if err != nil {
		r.warnUnavailableOnce(err)
		if r.logger != nil {
			r.logger.Printf("[Cache] Redis delete error tag=%s err=%v", tag, err)
		}
		return 0, err
	}
	return n, nil
}

func (r *Redis) SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return ok, nil
}
