package usecase

import (
	"context"
	"log"
	"time"

	"nearby-jobs/internal/domain/job"
	"nearby-jobs/internal/pkg/workerpool"

	"github.com/google/uuid"
)

// ChangePublisher fans a job change out to other instances.
type ChangePublisher interface {
	Publish(ctx context.Context, change job.Change) error
}

// ChangeNotifier pushes a job change to connected clients.
type ChangeNotifier interface {
	NotifyJobChanged(change job.Change)
}

// IndexRefresher re-reads one job's point into the local location index.
type IndexRefresher interface {
	Refresh(ctx context.Context, ownerID uuid.UUID) error
}

// Invalidator implements JobChangeHook. Work is queued on a worker pool so
// job writes never wait on the cache; when the queue is full the change is
// dropped and the cache TTL bounds the staleness.
type Invalidator struct {
	cache     *ResultCache
	pool      *workerpool.Pool
	publisher ChangePublisher
	notifier  ChangeNotifier
	index     IndexRefresher
	timeout   time.Duration
	logger    *log.Logger
}

type InvalidatorOptions struct {
	Pool      *workerpool.Pool
	Publisher ChangePublisher
	Notifier  ChangeNotifier
	Index     IndexRefresher
	Timeout   time.Duration
}

func NewInvalidator(cache *ResultCache, opts InvalidatorOptions, logger *log.Logger) *Invalidator {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Invalidator{
		cache:     cache,
		pool:      opts.Pool,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		index:     opts.Index,
		timeout:   opts.Timeout,
		logger:    logger,
	}
}

// OnJobChanged handles a write made by this instance.
func (i *Invalidator) OnJobChanged(_ context.Context, change job.Change) {
	i.dispatch(change, func(ctx context.Context) error {
		i.invalidate(ctx, change)
		if i.publisher != nil {
			if err := i.publisher.Publish(ctx, change); err != nil && i.logger != nil {
				i.logger.Printf("[Invalidator] Publish failed job=%s err=%v", change.JobID, err)
			}
		}
		if i.notifier != nil {
			i.notifier.NotifyJobChanged(change)
		}
		return nil
	})
}

// OnRemoteChange handles a change reported by another instance: the local
// index is re-synced from persistence and the local cache entries dropped.
func (i *Invalidator) OnRemoteChange(_ context.Context, change job.Change) {
	i.dispatch(change, func(ctx context.Context) error {
		if i.index != nil {
			if err := i.index.Refresh(ctx, change.JobID); err != nil && i.logger != nil {
				i.logger.Printf("[Invalidator] Index refresh failed job=%s err=%v", change.JobID, err)
			}
		}
		i.invalidate(ctx, change)
		if i.notifier != nil {
			i.notifier.NotifyJobChanged(change)
		}
		return nil
	})
}

func (i *Invalidator) dispatch(change job.Change, fn func(ctx context.Context) error) {
	task := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, i.timeout)
		defer cancel()
		return fn(ctx)
	}

	if i.pool == nil {
		_ = task(context.Background())
		return
	}
	if !i.pool.TrySubmit(task) && i.logger != nil {
		i.logger.Printf("[Invalidator] Queue full, change dropped job=%s kind=%s", change.JobID, change.Kind)
	}
}

func (i *Invalidator) invalidate(ctx context.Context, change job.Change) {
	if i.cache == nil {
		return
	}
	if _, err := i.cache.Invalidate(ctx, change.JobID, change.Points()...); err != nil && i.logger != nil {
		i.logger.Printf("[Invalidator] Cache invalidate failed job=%s err=%v", change.JobID, err)
	}
}
