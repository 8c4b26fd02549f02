package usecase

import (
	"context"
	"time"
)

// SearchCache is the keyed store behind the nearby-jobs cache. Implementations
// write a value together with its tag memberships so DeleteTag never misses a
// visible entry.
type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error
	Delete(ctx context.Context, key string) error
	DeleteTag(ctx context.Context, tag string) (int, error)
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}
