package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"

	"github.com/google/uuid"
)

var ErrRegionNotFound = errors.New("region not found")

const (
	MinSuggestQueryLen = 2
	MaxRegionSuggest   = 10
	DefaultPopular     = 20
	MaxPopular         = 50
)

type RegionCatalog interface {
	Region(code string) (job.Region, bool)
	List() []job.Region
}

type BoxIndex interface {
	QueryBox(b geo.Box) ([]uuid.UUID, error)
}

type RegionSummary struct {
	Region   job.Region
	JobCount int
}

type RegionUsecase interface {
	List(ctx context.Context) ([]job.Region, error)
	Get(ctx context.Context, code string) (RegionSummary, error)
	Suggest(ctx context.Context, q string) ([]job.Region, error)
	Popular(ctx context.Context, limit int) ([]RegionSummary, error)
}

type Regions struct {
	catalog RegionCatalog
	index   BoxIndex
}

func NewRegionUsecase(catalog RegionCatalog, index BoxIndex) *Regions {
	return &Regions{catalog: catalog, index: index}
}

func (u *Regions) List(_ context.Context) ([]job.Region, error) {
	return u.catalog.List(), nil
}

// Get returns the region with the number of indexed jobs inside its bounds,
// regardless of status.
func (u *Regions) Get(_ context.Context, code string) (RegionSummary, error) {
	r, ok := u.catalog.Region(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return RegionSummary{}, ErrRegionNotFound
	}
	out := RegionSummary{Region: r}
	if u.index != nil {
		ids, err := u.index.QueryBox(r.Bounds)
		if err != nil {
			return RegionSummary{}, errors.Join(ErrInternal, err)
		}
		out.JobCount = len(ids)
	}
	return out, nil
}

// Suggest returns up to MaxRegionSuggest regions whose code, name or
// country contains q, ignoring case. Code and name prefix matches rank
// first. Queries shorter than MinSuggestQueryLen match nothing.
func (u *Regions) Suggest(_ context.Context, q string) ([]job.Region, error) {
	return suggestRegions(u.catalog.List(), q, MaxRegionSuggest), nil
}

func suggestRegions(regions []job.Region, q string, limit int) []job.Region {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []job.Region{}
	if utf8.RuneCountInString(q) < MinSuggestQueryLen {
		return out
	}

	var rest []job.Region
	for _, r := range regions {
		code, name := strings.ToLower(r.Code), strings.ToLower(r.Name)
		switch {
		case strings.HasPrefix(code, q) || strings.HasPrefix(name, q):
			out = append(out, r)
		case strings.Contains(code, q) || strings.Contains(name, q) ||
			strings.Contains(strings.ToLower(r.Country), q):
			rest = append(rest, r)
		}
	}
	out = append(out, rest...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Popular ranks regions by the number of indexed jobs inside their bounds.
// Regions without jobs are left out. A limit outside 1..MaxPopular falls
// back to DefaultPopular.
func (u *Regions) Popular(_ context.Context, limit int) ([]RegionSummary, error) {
	if limit < 1 || limit > MaxPopular {
		limit = DefaultPopular
	}
	out := []RegionSummary{}
	if u.index == nil {
		return out, nil
	}
	for _, r := range u.catalog.List() {
		ids, err := u.index.QueryBox(r.Bounds)
		if err != nil {
			return nil, errors.Join(ErrInternal, err)
		}
		if len(ids) > 0 {
			out = append(out, RegionSummary{Region: r, JobCount: len(ids)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].JobCount != out[j].JobCount {
			return out[i].JobCount > out[j].JobCount
		}
		return out[i].Region.Code < out[j].Region.Code
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
