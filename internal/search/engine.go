package search

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"

	"github.com/google/uuid"
)

// LocationIndex returns the owners within a radius, unordered.
type LocationIndex interface {
	Query(center geo.Point, radiusKm float64) ([]uuid.UUID, error)
}

// JobReader is the read accessor over job persistence. Missing IDs are
// absent from the returned map.
type JobReader interface {
	FetchJobs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]job.Job, error)
}

// distanceEpsilonKm absorbs float noise when comparing recomputed distances.
const distanceEpsilonKm = 1e-9

type Hit struct {
	JobID      uuid.UUID `json:"job_id"`
	DistanceKm float64   `json:"distance_km"`
}

type Result struct {
	Hits     []Hit
	Total    int
	Page     int
	PageSize int

	// Jobs holds the records of the hits on this page.
	Jobs map[uuid.UUID]job.Job
}

type Engine struct {
	locations LocationIndex
	jobs      JobReader
	regions   RegionLookup
	logger    *log.Logger
}

func NewEngine(locations LocationIndex, jobs JobReader, regions RegionLookup, logger *log.Logger) *Engine {
	return &Engine{locations: locations, jobs: jobs, regions: regions, logger: logger}
}

// Query runs spec against the location index and returns the requested page,
// ordered by distance from the origin with ties broken by ascending job ID.
func (e *Engine) Query(ctx context.Context, spec QuerySpec) (Result, error) {
	if err := spec.Origin.Validate(); err != nil {
		return Result{}, err
	}
	if err := geo.ValidateRadius(spec.RadiusKm); err != nil {
		return Result{}, err
	}
	if spec.Page < 1 || spec.PageSize < 1 {
		return Result{}, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidFilter, spec.Page, spec.PageSize)
	}

	m, err := newMatcher(spec, e.regions)
	if err != nil {
		return Result{}, err
	}

	res := Result{Hits: []Hit{}, Page: spec.Page, PageSize: spec.PageSize, Jobs: map[uuid.UUID]job.Job{}}

	candidates, err := e.locations.Query(spec.Origin, spec.RadiusKm)
	if err != nil {
		return Result{}, fmt.Errorf("location query: %w", err)
	}
	if len(candidates) == 0 {
		return res, nil
	}

	jobs, err := e.jobs.FetchJobs(ctx, candidates)
	if err != nil {
		return Result{}, fmt.Errorf("fetch jobs: %w", err)
	}

	hits := make([]Hit, 0, len(candidates))
	for _, id := range candidates {
		j, ok := jobs[id]
		if !ok {
			continue
		}
		// The record is authoritative; the index may lag behind another
		// instance's write.
		d := geo.DistanceKm(spec.Origin, j.Point)
		if d > spec.RadiusKm {
			continue
		}
		if !m.match(j) {
			continue
		}
		hits = append(hits, Hit{JobID: id, DistanceKm: d})
	}

	SortHits(hits)
	res.Total = len(hits)

	start := spec.Offset()
	if start >= len(hits) {
		return res, nil
	}
	end := len(hits)
	if spec.PageSize < end-start {
		end = start + spec.PageSize
	}
	res.Hits = append(res.Hits, hits[start:end]...)
	for _, h := range res.Hits {
		res.Jobs[h.JobID] = jobs[h.JobID]
	}

	if e.logger != nil {
		e.logger.Printf("[Search] Proximity query origin=%s radius_km=%.3f candidates=%d matched=%d page=%d", spec.Origin, spec.RadiusKm, len(candidates), res.Total, spec.Page)
	}
	return res, nil
}

// SortHits orders hits by distance, then by job ID bytes.
func SortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return bytes.Compare(hits[i].JobID[:], hits[j].JobID[:]) < 0
	})
}

// Recheck reports whether every hit still refers to a job in jobs that lies
// at the recorded distance and passes the spec's filters. It is used to
// validate a cached page against fresh records.
func (e *Engine) Recheck(spec QuerySpec, hits []Hit, jobs map[uuid.UUID]job.Job) bool {
	m, err := newMatcher(spec, e.regions)
	if err != nil {
		return false
	}
	for _, h := range hits {
		j, ok := jobs[h.JobID]
		if !ok {
			return false
		}
		d := geo.DistanceKm(spec.Origin, j.Point)
		if d > spec.RadiusKm || math.Abs(d-h.DistanceKm) > distanceEpsilonKm {
			return false
		}
		if !m.match(j) {
			return false
		}
	}
	return true
}
