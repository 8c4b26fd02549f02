// Package region keeps the active named regions in memory for the region
// filter and the regions endpoints.
package region

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"nearby-jobs/internal/domain/job"
)

type Source interface {
	ListActive(ctx context.Context) ([]job.Region, error)
}

type Catalog struct {
	mu     sync.RWMutex
	byCode map[string]job.Region

	source Source
	logger *log.Logger
}

func NewCatalog(source Source, logger *log.Logger) *Catalog {
	return &Catalog{byCode: map[string]job.Region{}, source: source, logger: logger}
}

// Load replaces the catalog with the source's active regions. The previous
// contents are kept when the source fails.
func (c *Catalog) Load(ctx context.Context) error {
	if c.source == nil {
		return nil
	}
	regions, err := c.source.ListActive(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[Regions] load failed err=%v", err)
		}
		return err
	}
	c.Replace(regions)
	if c.logger != nil {
		c.logger.Printf("[Regions] loaded count=%d", len(regions))
	}
	return nil
}

// Replace swaps the catalog contents. Regions with invalid bounds are skipped.
func (c *Catalog) Replace(regions []job.Region) {
	next := make(map[string]job.Region, len(regions))
	for _, r := range regions {
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if code == "" || r.Bounds.Validate() != nil {
			if c.logger != nil {
				c.logger.Printf("[Regions] skip invalid region code=%q", r.Code)
			}
			continue
		}
		r.Code = code
		next[code] = r
	}

	c.mu.Lock()
	c.byCode = next
	c.mu.Unlock()
}

func (c *Catalog) Region(code string) (job.Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return r, ok
}

// List returns the regions sorted by code.
func (c *Catalog) List() []job.Region {
	c.mu.RLock()
	out := make([]job.Region, 0, len(c.byCode))
	for _, r := range c.byCode {
		out = append(out, r)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
