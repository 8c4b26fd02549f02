package usecase

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"
	"nearby-jobs/internal/search"
)

// Raw parameter keys understood by Compose besides the structured filters.
const (
	ParamLat      = "lat"
	ParamLng      = "lng"
	ParamRadius   = "radius"
	ParamText     = "q"
	ParamPage     = "page"
	ParamPageSize = "page_size"
)

// statusAny disables the default status filter.
const statusAny = "any"

// InputError reports which raw parameter was rejected. Err is one of
// geo.ErrInvalidCoordinate, geo.ErrInvalidRadius or search.ErrInvalidFilter.
type InputError struct {
	Key   string
	Value string
	Err   error
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Key)
	}
	return fmt.Sprintf("%v: %s=%q", e.Err, e.Key, e.Value)
}

func (e *InputError) Unwrap() error { return e.Err }

type ComposerOptions struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	DefaultPageSize int
	MaxPageSize     int
}

func DefaultComposerOptions() ComposerOptions {
	return ComposerOptions{
		DefaultRadiusKm: 50,
		MaxRadiusKm:     geo.MaxRadiusKm,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

// Composer turns raw request parameters into a canonical search.QuerySpec.
type Composer struct {
	opts    ComposerOptions
	regions search.RegionLookup
}

func NewComposer(opts ComposerOptions, regions search.RegionLookup) *Composer {
	def := DefaultComposerOptions()
	if opts.DefaultRadiusKm <= 0 {
		opts.DefaultRadiusKm = def.DefaultRadiusKm
	}
	if opts.MaxRadiusKm <= 0 || opts.MaxRadiusKm > geo.MaxRadiusKm {
		opts.MaxRadiusKm = def.MaxRadiusKm
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = def.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = def.MaxPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	return &Composer{opts: opts, regions: regions}
}

func (c *Composer) Compose(raw map[string]string) (search.QuerySpec, error) {
	vals := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		vals[key] = strings.TrimSpace(v)
	}

	for k := range vals {
		if !isComposerKey(k) {
			return search.QuerySpec{}, &InputError{Key: k, Err: search.ErrInvalidFilter}
		}
	}

	lat, err := parseCoordinate(vals, ParamLat, 90)
	if err != nil {
		return search.QuerySpec{}, err
	}
	lng, err := parseCoordinate(vals, ParamLng, 180)
	if err != nil {
		return search.QuerySpec{}, err
	}

	radius, err := c.parseRadius(vals[ParamRadius])
	if err != nil {
		return search.QuerySpec{}, err
	}

	page, err := parsePositiveInt(vals, ParamPage, 1, 0)
	if err != nil {
		return search.QuerySpec{}, err
	}
	pageSize, err := parsePositiveInt(vals, ParamPageSize, c.opts.DefaultPageSize, c.opts.MaxPageSize)
	if err != nil {
		return search.QuerySpec{}, err
	}

	filters, err := c.composeFilters(vals)
	if err != nil {
		return search.QuerySpec{}, err
	}

	return search.QuerySpec{
		Origin:   geo.Point{Lat: lat, Lng: lng},
		RadiusKm: radius,
		Text:     search.NormalizeQuery(vals[ParamText]),
		Filters:  filters,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func isComposerKey(k string) bool {
	switch k {
	case ParamLat, ParamLng, ParamRadius, ParamText, ParamPage, ParamPageSize:
		return true
	}
	_, ok := search.KnownFilters[k]
	return ok
}

func parseCoordinate(vals map[string]string, key string, limit float64) (float64, error) {
	v, ok := vals[key]
	if !ok || v == "" {
		return 0, &InputError{Key: key, Err: geo.ErrInvalidCoordinate}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < -limit || f > limit {
		return 0, &InputError{Key: key, Value: v, Err: geo.ErrInvalidCoordinate}
	}
	f = geo.Round6(f)
	if f == 0 {
		// Collapse -0 so it fingerprints like 0.
		f = 0
	}
	return f, nil
}

func (c *Composer) parseRadius(v string) (float64, error) {
	if v == "" {
		return c.opts.DefaultRadiusKm, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &InputError{Key: ParamRadius, Value: v, Err: geo.ErrInvalidRadius}
	}
	f = geo.Round6(f)
	if f <= 0 || f > c.opts.MaxRadiusKm {
		return 0, &InputError{Key: ParamRadius, Value: v, Err: geo.ErrInvalidRadius}
	}
	return f, nil
}

// parsePositiveInt parses an integer >= 1. A max of 0 means unbounded.
func parsePositiveInt(vals map[string]string, key string, def, max int) (int, error) {
	v := vals[key]
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || (max > 0 && n > max) {
		return 0, &InputError{Key: key, Value: v, Err: search.ErrInvalidFilter}
	}
	return n, nil
}

func (c *Composer) composeFilters(vals map[string]string) ([]search.Filter, error) {
	filters := make([]search.Filter, 0, len(search.KnownFilters))
	add := func(field, value string) {
		filters = append(filters, search.Filter{Field: field, Value: value})
	}
	bad := func(field, value string) error {
		return &InputError{Key: field, Value: value, Err: search.ErrInvalidFilter}
	}

	status := strings.ToLower(vals[search.FilterStatus])
	switch status {
	case "":
		add(search.FilterStatus, string(job.StatusOpen))
	case statusAny:
	default:
		st, err := job.ParseStatus(status)
		if err != nil {
			return nil, bad(search.FilterStatus, vals[search.FilterStatus])
		}
		add(search.FilterStatus, string(st))
	}

	if v := normalizeToken(vals[search.FilterJobType]); v != "" {
		if !job.ValidJobType(v) {
			return nil, bad(search.FilterJobType, vals[search.FilterJobType])
		}
		add(search.FilterJobType, v)
	}
	if v := normalizeToken(vals[search.FilterExperienceLevel]); v != "" {
		if !job.ValidExperienceLevel(v) {
			return nil, bad(search.FilterExperienceLevel, vals[search.FilterExperienceLevel])
		}
		add(search.FilterExperienceLevel, v)
	}
	if v := normalizeSearchValue(vals[search.FilterCategory]); v != "" {
		add(search.FilterCategory, v)
	}

	if v := vals[search.FilterIsRemote]; v != "" {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return nil, bad(search.FilterIsRemote, v)
		}
		add(search.FilterIsRemote, strconv.FormatBool(b))
	}

	var minSalary, maxSalary *float64
	for _, field := range []string{search.FilterMinSalary, search.FilterMaxSalary} {
		v := vals[field]
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return nil, bad(field, v)
		}
		if field == search.FilterMinSalary {
			minSalary = &f
		} else {
			maxSalary = &f
		}
		add(field, strconv.FormatFloat(f, 'f', -1, 64))
	}
	if minSalary != nil && maxSalary != nil && *minSalary > *maxSalary {
		return nil, bad(search.FilterMinSalary, vals[search.FilterMinSalary])
	}

	if v := strings.ToUpper(vals[search.FilterRegion]); v != "" {
		if c.regions == nil {
			return nil, bad(search.FilterRegion, vals[search.FilterRegion])
		}
		if _, ok := c.regions.Region(v); !ok {
			return nil, bad(search.FilterRegion, vals[search.FilterRegion])
		}
		add(search.FilterRegion, v)
	}

	sort.Slice(filters, func(i, j int) bool { return filters[i].Field < filters[j].Field })
	return filters, nil
}

// normalizeToken lower-cases v and maps separators to underscores, so
// "Full Time" and "full-time" both become "full_time".
func normalizeToken(v string) string {
	v = normalizeSearchValue(v)
	v = strings.ReplaceAll(v, "-", "_")
	return strings.ReplaceAll(v, " ", "_")
}

// IsInputError reports whether err was caused by client input.
func IsInputError(err error) bool {
	return errors.Is(err, geo.ErrInvalidCoordinate) ||
		errors.Is(err, geo.ErrInvalidRadius) ||
		errors.Is(err, search.ErrInvalidFilter)
}
