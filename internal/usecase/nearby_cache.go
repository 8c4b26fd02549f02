package usecase

import (
	"context"
	"log"
	"sort"
	"time"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/search"

	"github.com/google/uuid"
)

const (
	// AreaWideTag marks entries whose circle is too large to tag by cell.
	// Every job change invalidates it.
	AreaWideTag = "area:wide"

	maxTaggedCells = 64
)

func JobTag(id uuid.UUID) string { return "job:" + id.String() }

func CellTag(c geo.Cell) string { return "cell:" + c.String() }

// CachedPage is what gets stored per fingerprint: the ordered hits of one
// page plus the total, without job bodies.
type CachedPage struct {
	Hits     []search.Hit `json:"hits"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	CachedAt time.Time    `json:"cached_at"`
	Tags     []string     `json:"tags"`
}

func PageFromResult(res search.Result, now time.Time) CachedPage {
	hits := res.Hits
	if hits == nil {
		hits = []search.Hit{}
	}
	return CachedPage{Hits: hits, Total: res.Total, Page: res.Page, PageSize: res.PageSize, CachedAt: now.UTC()}
}

// ResultTags lists the tags a cached page must carry: the jobs on the page
// and the grid cells the spec's circle reaches.
func ResultTags(spec search.QuerySpec, hits []search.Hit) []string {
	tags := make([]string, 0, len(hits)+8)
	for _, h := range hits {
		tags = append(tags, JobTag(h.JobID))
	}
	cells, ok := geo.CellsCovering(spec.Circle(), maxTaggedCells)
	if !ok {
		tags = append(tags, AreaWideTag)
	} else {
		for _, c := range cells {
			tags = append(tags, CellTag(c))
		}
	}
	sort.Strings(tags)
	return tags
}

// InvalidationTags lists the tags to drop when a job at any of points changes.
func InvalidationTags(jobID uuid.UUID, points ...geo.Point) []string {
	tags := []string{JobTag(jobID), AreaWideTag}
	seen := map[geo.Cell]struct{}{}
	for _, p := range points {
		c := geo.CellOf(p)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		tags = append(tags, CellTag(c))
	}
	return tags
}

// ResultCache is the cache-aside layer in front of the proximity engine.
// Store failures are logged and reported as misses.
type ResultCache struct {
	store  SearchCache
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

func NewResultCache(store SearchCache, ttl time.Duration, logger *log.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResultCache{store: store, ttl: ttl, logger: logger, now: time.Now}
}

func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

func (c *ResultCache) Get(ctx context.Context, spec search.QuerySpec) (CachedPage, bool) {
	if c == nil || c.store == nil {
		return CachedPage{}, false
	}
	key := NearbyCacheKey(spec)
	var page CachedPage
	hit, err := c.store.GetJSON(ctx, key, &page)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[Cache] Get failed key=%s err=%v", key, err)
		}
		return CachedPage{}, false
	}
	if !hit {
		return CachedPage{}, false
	}
	// Entries written before the TTL was shortened still honour the new bound.
	if !page.CachedAt.IsZero() && c.now().Sub(page.CachedAt) >= c.ttl {
		return CachedPage{}, false
	}
	if page.Hits == nil {
		page.Hits = []search.Hit{}
	}
	return page, true
}

func (c *ResultCache) Put(ctx context.Context, spec search.QuerySpec, page CachedPage, tags []string) {
	if c == nil || c.store == nil {
		return
	}
	key := NearbyCacheKey(spec)
	page.Tags = tags
	if page.CachedAt.IsZero() {
		page.CachedAt = c.now().UTC()
	}
	if err := c.store.SetJSON(ctx, key, page, c.ttl, tags...); err != nil {
		if c.logger != nil {
			c.logger.Printf("[Cache] Put failed key=%s err=%v", key, err)
		}
		return
	}
	if c.logger != nil {
		c.logger.Printf("[Cache] SET key=%s tags=%d total=%d", key, len(tags), page.Total)
	}
}

// Invalidate drops every entry tagged with jobID or with the cell of any of
// points, plus all wide-area entries. It returns the number of entries removed.
func (c *ResultCache) Invalidate(ctx context.Context, jobID uuid.UUID, points ...geo.Point) (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}
	removed := 0
	var firstErr error
	for _, tag := range InvalidationTags(jobID, points...) {
		n, err := c.store.DeleteTag(ctx, tag)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed += n
	}
	if c.logger != nil {
		c.logger.Printf("[Cache] Invalidate job=%s points=%d removed=%d", jobID, len(points), removed)
	}
	return removed, firstErr
}
