package search

import (
	"fmt"
	"strconv"
	"strings"

	"nearby-jobs/internal/domain/job"
)

// RegionLookup resolves region codes used by the region filter.
type RegionLookup interface {
	Region(code string) (job.Region, bool)
}

// matcher is the compiled form of a spec's structured and free-text filters.
type matcher struct {
	status          job.Status
	jobType         string
	category        string
	experienceLevel string
	isRemote        *bool
	minSalary       *float64
	maxSalary       *float64
	region          *job.Region
	variants        []string
}

func newMatcher(spec QuerySpec, regions RegionLookup) (*matcher, error) {
	m := &matcher{}
	for _, f := range spec.Filters {
		switch f.Field {
		case FilterStatus:
			st, err := job.ParseStatus(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, f.Field, f.Value)
			}
			m.status = st
		case FilterJobType:
			m.jobType = f.Value
		case FilterCategory:
			m.category = f.Value
		case FilterExperienceLevel:
			m.experienceLevel = f.Value
		case FilterIsRemote:
			b, err := strconv.ParseBool(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, f.Field, f.Value)
			}
			m.isRemote = &b
		case FilterMinSalary, FilterMaxSalary:
			v, err := strconv.ParseFloat(f.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, f.Field, f.Value)
			}
			if f.Field == FilterMinSalary {
				m.minSalary = &v
			} else {
				m.maxSalary = &v
			}
		case FilterRegion:
			if regions == nil {
				return nil, fmt.Errorf("%w: region filter unavailable", ErrInvalidFilter)
			}
			r, ok := regions.Region(f.Value)
			if !ok {
				return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidFilter, f.Value)
			}
			m.region = &r
		default:
			return nil, fmt.Errorf("%w: unknown filter %q", ErrInvalidFilter, f.Field)
		}
	}
	if spec.Text != "" {
		m.variants = ProcessQuery(spec.Text).Variants
	}
	return m, nil
}

func (m *matcher) match(j job.Job) bool {
	if m.status != "" && j.Status != m.status {
		return false
	}
	if m.jobType != "" && !strings.EqualFold(j.JobType, m.jobType) {
		return false
	}
	if m.category != "" && !strings.EqualFold(j.Category, m.category) {
		return false
	}
	if m.experienceLevel != "" && !strings.EqualFold(j.ExperienceLevel, m.experienceLevel) {
		return false
	}
	if m.isRemote != nil && j.IsRemote != *m.isRemote {
		return false
	}
	// Salary bounds follow the listing semantics: salary_min >= min_salary
	// and salary_max <= max_salary; jobs without the bound are excluded.
	if m.minSalary != nil && (j.SalaryMin == nil || *j.SalaryMin < *m.minSalary) {
		return false
	}
	if m.maxSalary != nil && (j.SalaryMax == nil || *j.SalaryMax > *m.maxSalary) {
		return false
	}
	if m.region != nil && !m.region.Bounds.Contains(j.Point) {
		return false
	}
	if len(m.variants) > 0 {
		text := j.Title + " " + j.Company + " " + j.Description + " " + j.Category
		if !MatchesAny(text, m.variants) {
			return false
		}
	}
	return true
}
