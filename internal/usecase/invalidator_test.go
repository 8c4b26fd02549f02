package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"
	"nearby-jobs/internal/infrastructure/cache"
	"nearby-jobs/internal/pkg/workerpool"
	"nearby-jobs/internal/search"

	"github.com/google/uuid"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []job.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c job.Change) error {
	p.mu.Lock()
	p.changes = append(p.changes, c)
	p.mu.Unlock()
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *recordingNotifier) NotifyJobChanged(job.Change) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

type recordingRefresher struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *recordingRefresher) Refresh(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	return nil
}

func putEntry(t *testing.T, rc *ResultCache, origin geo.Point, radius float64, hits ...search.Hit) search.QuerySpec {
	t.Helper()
	spec := search.QuerySpec{Origin: origin, RadiusKm: radius, Filters: []search.Filter{}, Page: 1, PageSize: 20}
	if hits == nil {
		hits = []search.Hit{}
	}
	rc.Put(context.Background(), spec, CachedPage{Hits: hits, Total: len(hits), Page: 1, PageSize: 20}, ResultTags(spec, hits))
	return spec
}

func TestResultTags(t *testing.T) {
	id := uuid.New()
	spec := search.QuerySpec{Origin: geo.Point{Lat: 40, Lng: -75}, RadiusKm: 10}
	tags := ResultTags(spec, []search.Hit{{JobID: id, DistanceKm: 1}})

	has := func(tag string) bool {
		for _, tg := range tags {
			if tg == tag {
				return true
			}
		}
		return false
	}
	if !has(JobTag(id)) || !has(CellTag(geo.CellOf(spec.Origin))) || has(AreaWideTag) {
		t.Fatalf("unexpected tags %v", tags)
	}

	wide := search.QuerySpec{Origin: geo.Point{Lat: 40, Lng: -75}, RadiusKm: 2000}
	tags = ResultTags(wide, nil)
	if len(tags) != 1 || tags[0] != AreaWideTag {
		t.Fatalf("expected area:wide only, got %v", tags)
	}
}

func TestInvalidator_DropsAffectedEntriesOnly(t *testing.T) {
	ctx := context.Background()
	rc := NewResultCache(cache.NewMemory(time.Minute), time.Minute, nil)
	pub := &recordingPublisher{}
	note := &recordingNotifier{}
	inv := NewInvalidator(rc, InvalidatorOptions{Publisher: pub, Notifier: note}, nil)

	jobID := uuid.New()
	phl := geo.Point{Lat: 40, Lng: -75}
	tokyo := geo.Point{Lat: 35.68, Lng: 139.69}

	near := putEntry(t, rc, phl, 10)
	tagged := putEntry(t, rc, tokyo, 5, search.Hit{JobID: jobID, DistanceKm: 1})
	other := putEntry(t, rc, tokyo, 7)
	wide := putEntry(t, rc, tokyo, 3000)

	p := geo.Point{Lat: 40.01, Lng: -75}
	inv.OnJobChanged(ctx, job.Change{JobID: jobID, Kind: job.ChangeCreated, NewPoint: &p})

	if _, ok := rc.Get(ctx, near); ok {
		t.Fatalf("entry covering the new point should be dropped")
	}
	if _, ok := rc.Get(ctx, tagged); ok {
		t.Fatalf("entry tagged with the job should be dropped")
	}
	if _, ok := rc.Get(ctx, wide); ok {
		t.Fatalf("wide-area entry should be dropped")
	}
	if _, ok := rc.Get(ctx, other); !ok {
		t.Fatalf("unrelated entry should survive")
	}
	if len(pub.changes) != 1 || note.count != 1 {
		t.Fatalf("expected publish and notify, got %d/%d", len(pub.changes), note.count)
	}
}

func TestInvalidator_QueuedOnPool(t *testing.T) {
	ctx := context.Background()
	rc := NewResultCache(cache.NewMemory(time.Minute), time.Minute, nil)
	pool := workerpool.New(2, 16, nil)
	pool.Start(ctx)
	refresher := &recordingRefresher{}
	inv := NewInvalidator(rc, InvalidatorOptions{Pool: pool, Index: refresher}, nil)

	origin := geo.Point{Lat: 10, Lng: 10}
	spec := putEntry(t, rc, origin, 5)

	jobID := uuid.New()
	inv.OnRemoteChange(ctx, job.Change{JobID: jobID, Kind: job.ChangeUpdated, OldPoint: &origin, NewPoint: &origin})
	pool.Close()

	if _, ok := rc.Get(ctx, spec); ok {
		t.Fatalf("remote change should drop local entries")
	}
	if len(refresher.ids) != 1 || refresher.ids[0] != jobID {
		t.Fatalf("expected index refresh, got %v", refresher.ids)
	}
}
