package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nearby-jobs/internal/domain/job"
	"nearby-jobs/internal/search"

	"github.com/google/uuid"
)

type memJobRepo struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]job.Job
	createErr error
	updateErr error
	fetchErr  error
	deleted   []uuid.UUID
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[uuid.UUID]job.Job{}}
}

func (r *memJobRepo) Create(_ context.Context, j job.Job) (job.Job, error) {
	if r.createErr != nil {
		return job.Job{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
	return j, nil
}

func (r *memJobRepo) Update(_ context.Context, j job.Job) (job.Job, error) {
	if r.updateErr != nil {
		return job.Job{}, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return job.Job{}, job.ErrNotFound
	}
	r.jobs[j.ID] = j
	return j, nil
}

func (r *memJobRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return job.ErrNotFound
	}
	delete(r.jobs, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id uuid.UUID) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (r *memJobRepo) FetchJobs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]job.Job, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]job.Job, len(ids))
	for _, id := range ids {
		if j, ok := r.jobs[id]; ok {
			out[id] = j
		}
	}
	return out, nil
}

// countingEngine counts real computations.
type countingEngine struct {
	*search.Engine
	calls   atomic.Int32
	delay   time.Duration
	started chan struct{}
}

func (e *countingEngine) Query(ctx context.Context, spec search.QuerySpec) (search.Result, error) {
	e.calls.Add(1)
	if e.started != nil {
		select {
		case e.started <- struct{}{}:
		default:
		}
	}
	if e.delay > 0 {
		t := time.NewTimer(e.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return search.Result{}, ctx.Err()
		case <-t.C:
		}
	}
	return e.Engine.Query(ctx, spec)
}

// brokenCache fails every call.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) GetJSON(context.Context, string, any) (bool, error) { return false, errCacheDown }
func (brokenCache) SetJSON(context.Context, string, any, time.Duration, ...string) error {
	return errCacheDown
}
func (brokenCache) Delete(context.Context, string) error { return errCacheDown }
func (brokenCache) DeleteTag(context.Context, string) (int, error) {
	return 0, errCacheDown
}
func (brokenCache) SetIfNotExists(context.Context, string, string, time.Duration) (bool, error) {
	return false, errCacheDown
}

type recordingHook struct {
	mu      sync.Mutex
	changes []job.Change
}

func (h *recordingHook) OnJobChanged(_ context.Context, c job.Change) {
	h.mu.Lock()
	h.changes = append(h.changes, c)
	h.mu.Unlock()
}

func (h *recordingHook) last() job.Change {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.changes) == 0 {
		return job.Change{}
	}
	return h.changes[len(h.changes)-1]
}
