package job

import (
	"errors"
	"strings"
	"time"

	"nearby-jobs/internal/domain/geo"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("job not found")
	ErrInvalidStatus = errors.New("invalid job status")
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusFilled Status = "filled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusOpen, StatusClosed, StatusFilled:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

var jobTypes = map[string]struct{}{
	"full_time":  {},
	"part_time":  {},
	"contract":   {},
	"internship": {},
	"freelance":  {},
	"temporary":  {},
}

var experienceLevels = map[string]struct{}{
	"entry":     {},
	"junior":    {},
	"mid":       {},
	"senior":    {},
	"lead":      {},
	"executive": {},
}

func ValidJobType(s string) bool {
	_, ok := jobTypes[s]
	return ok
}

func ValidExperienceLevel(s string) bool {
	_, ok := experienceLevels[s]
	return ok
}

type Job struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	Title           string
	Company         string
	Description     string
	Category        string
	JobType         string
	ExperienceLevel string
	IsRemote        bool
	SalaryMin       *float64
	SalaryMax       *float64
	Point           geo.Point
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanBeModifiedBy reports whether userID may update or delete the job.
func (j Job) CanBeModifiedBy(userID uuid.UUID, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return userID != uuid.Nil && j.OwnerID == userID
}

type Region struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Country   string
	Bounds    geo.Box
	IsActive  bool
	CreatedAt time.Time
}

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes a job mutation. OldPoint is nil for creations and
// NewPoint is nil for deletions.
type Change struct {
	JobID    uuid.UUID
	Kind     ChangeKind
	OldPoint *geo.Point
	NewPoint *geo.Point
	At       time.Time
}

// Points returns the distinct points touched by the change.
func (c Change) Points() []geo.Point {
	out := make([]geo.Point, 0, 2)
	if c.OldPoint != nil {
		out = append(out, *c.OldPoint)
	}
	if c.NewPoint != nil && (c.OldPoint == nil || *c.NewPoint != *c.OldPoint) {
		out = append(out, *c.NewPoint)
	}
	return out
}
