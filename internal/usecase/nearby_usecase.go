package usecase

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"nearby-jobs/internal/domain/job"
	"nearby-jobs/internal/search"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type NearbyItem struct {
	Job        job.Job
	DistanceKm float64
}

type NearbyPage struct {
	Items    []NearbyItem
	Total    int
	Page     int
	PageSize int
	Cached   bool
}

type NearbyJobsUsecase interface {
	Nearby(ctx context.Context, raw map[string]string) (NearbyPage, error)
}

// ProximityEngine is the part of search.Engine the use case depends on.
type ProximityEngine interface {
	Query(ctx context.Context, spec search.QuerySpec) (search.Result, error)
	Recheck(spec search.QuerySpec, hits []search.Hit, jobs map[uuid.UUID]job.Job) bool
}

type NearbyJobs struct {
	composer *Composer
	engine   ProximityEngine
	jobs     search.JobReader
	cache    *ResultCache
	logger   *log.Logger

	group singleflight.Group

	lockTTL  time.Duration
	lockWait time.Duration
}

func NewNearbyJobsUsecase(composer *Composer, engine ProximityEngine, jobs search.JobReader, cache *ResultCache, lockTTL time.Duration, logger *log.Logger) *NearbyJobs {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &NearbyJobs{
		composer: composer,
		engine:   engine,
		jobs:     jobs,
		cache:    cache,
		logger:   logger,
		lockTTL:  lockTTL,
		lockWait: 300 * time.Millisecond,
	}
}

func (u *NearbyJobs) Nearby(ctx context.Context, raw map[string]string) (NearbyPage, error) {
	spec, err := u.composer.Compose(raw)
	if err != nil {
		return NearbyPage{}, err
	}

	if u.cache == nil || u.cache.store == nil {
		return u.compute(ctx, spec)
	}

	key := NearbyCacheKey(spec)
	if page, ok := u.fromCache(ctx, spec, key); ok {
		return page, nil
	}

	// The shared computation outlives any single caller; each caller only
	// stops waiting when its own context ends.
	ch := u.group.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.lockTTL)
		defer cancel()
		return u.computeLocked(cctx, spec, key)
	})
	select {
	case <-ctx.Done():
		return NearbyPage{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return NearbyPage{}, r.Err
		}
		if r.Shared && u.logger != nil {
			u.logger.Printf("[Nearby] Shared computation key=%s", key)
		}
		return r.Val.(NearbyPage), nil
	}
}

// fromCache returns a cached page after hydrating it with current job
// records. A page whose records no longer match is treated as a miss.
func (u *NearbyJobs) fromCache(ctx context.Context, spec search.QuerySpec, key string) (NearbyPage, bool) {
	cached, ok := u.cache.Get(ctx, spec)
	if !ok {
		if u.logger != nil {
			u.logger.Printf("[Nearby] Cache MISS: %s", key)
		}
		return NearbyPage{}, false
	}

	ids := make([]uuid.UUID, 0, len(cached.Hits))
	for _, h := range cached.Hits {
		ids = append(ids, h.JobID)
	}
	jobs := map[uuid.UUID]job.Job{}
	if len(ids) > 0 {
		var err error
		jobs, err = u.jobs.FetchJobs(ctx, ids)
		if err != nil {
			if u.logger != nil {
				u.logger.Printf("[Nearby] Cache hydrate failed key=%s err=%v", key, err)
			}
			return NearbyPage{}, false
		}
	}
	if !u.engine.Recheck(spec, cached.Hits, jobs) {
		if u.logger != nil {
			u.logger.Printf("[Nearby] Cache STALE: %s", key)
		}
		return NearbyPage{}, false
	}

	if u.logger != nil {
		u.logger.Printf("[Nearby] Cache HIT: %s", key)
	}
	page := buildPage(cached.Hits, jobs, cached.Total, cached.Page, cached.PageSize)
	page.Cached = true
	return page, true
}

func (u *NearbyJobs) computeLocked(ctx context.Context, spec search.QuerySpec, key string) (NearbyPage, error) {
	lockKey := NearbyLockKey(key)
	lockAcquired := false

	ok, err := u.cache.store.SetIfNotExists(ctx, lockKey, "1", u.lockTTL)
	switch {
	case err != nil:
		if u.logger != nil {
			u.logger.Printf("[Nearby] Lock error key=%s err=%v", lockKey, err)
		}
	case ok:
		lockAcquired = true
	default:
		// Another instance is computing the same page. Give it a moment,
		// then fall back to computing here.
		jitter := time.Duration(rand.Int63n(int64(u.lockWait/3) + 1))
		t := time.NewTimer(u.lockWait + jitter)
		select {
		case <-ctx.Done():
			t.Stop()
			return NearbyPage{}, ctx.Err()
		case <-t.C:
		}
		if page, ok := u.fromCache(ctx, spec, key); ok {
			return page, nil
		}
		if u.logger != nil {
			u.logger.Printf("[Nearby] Lock wait fallback: %s", lockKey)
		}
	}
	if lockAcquired {
		defer func() {
			_ = u.cache.store.Delete(context.WithoutCancel(ctx), lockKey)
		}()
	}

	res, err := u.engine.Query(ctx, spec)
	if err != nil {
		return NearbyPage{}, u.queryError(err)
	}

	tags := ResultTags(spec, res.Hits)
	u.cache.Put(ctx, spec, PageFromResult(res, time.Now()), tags)

	return buildPage(res.Hits, res.Jobs, res.Total, res.Page, res.PageSize), nil
}

func (u *NearbyJobs) compute(ctx context.Context, spec search.QuerySpec) (NearbyPage, error) {
	res, err := u.engine.Query(ctx, spec)
	if err != nil {
		return NearbyPage{}, u.queryError(err)
	}
	return buildPage(res.Hits, res.Jobs, res.Total, res.Page, res.PageSize), nil
}

func (u *NearbyJobs) queryError(err error) error {
	if IsInputError(err) {
		return err
	}
	if u.logger != nil {
		u.logger.Printf("[Nearby] Query failed err=%v", err)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

func buildPage(hits []search.Hit, jobs map[uuid.UUID]job.Job, total, page, pageSize int) NearbyPage {
	items := make([]NearbyItem, 0, len(hits))
	for _, h := range hits {
		items = append(items, NearbyItem{Job: jobs[h.JobID], DistanceKm: h.DistanceKm})
	}
	return NearbyPage{Items: items, Total: total, Page: page, PageSize: pageSize}
}
