package search

import (
	"errors"
	"math"

	"nearby-jobs/internal/domain/geo"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Structured filter fields accepted on a proximity query.
const (
	FilterStatus          = "status"
	FilterJobType         = "job_type"
	FilterCategory        = "category"
	FilterExperienceLevel = "experience_level"
	FilterIsRemote        = "is_remote"
	FilterMinSalary       = "min_salary"
	FilterMaxSalary       = "max_salary"
	FilterRegion          = "region"
)

var KnownFilters = map[string]struct{}{
	FilterStatus:          {},
	FilterJobType:         {},
	FilterCategory:        {},
	FilterExperienceLevel: {},
	FilterIsRemote:        {},
	FilterMinSalary:       {},
	FilterMaxSalary:       {},
	FilterRegion:          {},
}

type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// QuerySpec is a normalized proximity query. Filters are sorted by Field and
// hold canonical values, so equal specs describe the same request.
type QuerySpec struct {
	Origin   geo.Point `json:"origin"`
	RadiusKm float64   `json:"radius_km"`
	Text     string    `json:"text"`
	Filters  []Filter  `json:"filters"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

func (s QuerySpec) Filter(field string) (string, bool) {
	for _, f := range s.Filters {
		if f.Field == field {
			return f.Value, true
		}
	}
	return "", false
}

func (s QuerySpec) Equal(o QuerySpec) bool {
	if s.Origin != o.Origin || s.RadiusKm != o.RadiusKm || s.Text != o.Text ||
		s.Page != o.Page || s.PageSize != o.PageSize || len(s.Filters) != len(o.Filters) {
		return false
	}
	for i := range s.Filters {
		if s.Filters[i] != o.Filters[i] {
			return false
		}
	}
	return true
}

func (s QuerySpec) Circle() geo.Circle {
	return geo.Circle{Center: s.Origin, RadiusKm: s.RadiusKm}
}

// Offset is the zero-based index of the first hit on the spec's page. It
// saturates at math.MaxInt instead of overflowing for huge pages.
func (s QuerySpec) Offset() int {
	if s.Page < 1 || s.PageSize < 1 {
		return 0
	}
	if s.Page-1 > math.MaxInt/s.PageSize {
		return math.MaxInt
	}
	return (s.Page - 1) * s.PageSize
}
