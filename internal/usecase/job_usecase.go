package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrJobNotFound  = job.ErrNotFound
)

type JobRepository interface {
	Create(ctx context.Context, j job.Job) (job.Job, error)
	Update(ctx context.Context, j job.Job) (job.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (job.Job, error)
}

type LocationWriter interface {
	Insert(ctx context.Context, p geo.Point, ownerID uuid.UUID) error
	Remove(ctx context.Context, ownerID uuid.UUID) error
}

// JobChangeHook is told about every committed job write.
type JobChangeHook interface {
	OnJobChanged(ctx context.Context, change job.Change)
}

// Actor is the authenticated caller of a write.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type CreateJobInput struct {
	Title           string
	Company         string
	Description     string
	Category        string
	JobType         string
	ExperienceLevel string
	IsRemote        bool
	SalaryMin       *float64
	SalaryMax       *float64
	Lat             float64
	Lng             float64
	Status          string
}

// UpdateJobInput is a partial update; nil fields are left unchanged.
type UpdateJobInput struct {
	Title           *string
	Company         *string
	Description     *string
	Category        *string
	JobType         *string
	ExperienceLevel *string
	IsRemote        *bool
	SalaryMin       *float64
	SalaryMax       *float64
	Lat             *float64
	Lng             *float64
	Status          *string
}

type JobUsecase interface {
	Create(ctx context.Context, actor Actor, in CreateJobInput) (job.Job, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateJobInput) (job.Job, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (job.Job, error)
}

type JobCommands struct {
	jobs      JobRepository
	locations LocationWriter
	hook      JobChangeHook
	logger    *log.Logger
	now       func() time.Time
}

func NewJobUsecase(jobs JobRepository, locations LocationWriter, hook JobChangeHook, logger *log.Logger) *JobCommands {
	return &JobCommands{jobs: jobs, locations: locations, hook: hook, logger: logger, now: time.Now}
}

func (u *JobCommands) Create(ctx context.Context, actor Actor, in CreateJobInput) (job.Job, error) {
	if actor.UserID == uuid.Nil {
		return job.Job{}, ErrUnauthorized
	}

	status := job.StatusOpen
	if strings.TrimSpace(in.Status) != "" {
		st, err := job.ParseStatus(in.Status)
		if err != nil {
			return job.Job{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		status = st
	}

	now := u.now().UTC()
	j := job.Job{
		ID:              uuid.New(),
		OwnerID:         actor.UserID,
		Title:           strings.TrimSpace(in.Title),
		Company:         strings.TrimSpace(in.Company),
		Description:     strings.TrimSpace(in.Description),
		Category:        normalizeSearchValue(in.Category),
		JobType:         normalizeToken(in.JobType),
		ExperienceLevel: normalizeToken(in.ExperienceLevel),
		IsRemote:        in.IsRemote,
		SalaryMin:       in.SalaryMin,
		SalaryMax:       in.SalaryMax,
		Point:           geo.Point{Lat: geo.Round6(in.Lat), Lng: geo.Round6(in.Lng)},
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateJob(j); err != nil {
		return job.Job{}, err
	}

	created, err := u.jobs.Create(ctx, j)
	if err != nil {
		u.logf("[Jobs] Create failed err=%v", err)
		return job.Job{}, ErrInternal
	}

	if err := u.locations.Insert(ctx, created.Point, created.ID); err != nil {
		u.logf("[Jobs] Location insert failed job=%s err=%v", created.ID, err)
		if derr := u.jobs.Delete(ctx, created.ID); derr != nil {
			u.logf("[Jobs] Compensating delete failed job=%s err=%v", created.ID, derr)
		}
		return job.Job{}, ErrInternal
	}

	p := created.Point
	u.notify(ctx, job.Change{JobID: created.ID, Kind: job.ChangeCreated, NewPoint: &p, At: now})
	return created, nil
}

func (u *JobCommands) Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateJobInput) (job.Job, error) {
	current, err := u.load(ctx, actor, id)
	if err != nil {
		return job.Job{}, err
	}

	next := current
	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
	}
	if in.Company != nil {
		next.Company = strings.TrimSpace(*in.Company)
	}
	if in.Description != nil {
		next.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		next.Category = normalizeSearchValue(*in.Category)
	}
	if in.JobType != nil {
		next.JobType = normalizeToken(*in.JobType)
	}
	if in.ExperienceLevel != nil {
		next.ExperienceLevel = normalizeToken(*in.ExperienceLevel)
	}
	if in.IsRemote != nil {
		next.IsRemote = *in.IsRemote
	}
	if in.SalaryMin != nil {
		v := *in.SalaryMin
		next.SalaryMin = &v
	}
	if in.SalaryMax != nil {
		v := *in.SalaryMax
		next.SalaryMax = &v
	}
	if in.Lat != nil || in.Lng != nil {
		p := current.Point
		if in.Lat != nil {
			p.Lat = geo.Round6(*in.Lat)
		}
		if in.Lng != nil {
			p.Lng = geo.Round6(*in.Lng)
		}
		next.Point = p
	}
	if in.Status != nil {
		st, err := job.ParseStatus(*in.Status)
		if err != nil {
			return job.Job{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		next.Status = st
	}
	if err := validateJob(next); err != nil {
		return job.Job{}, err
	}
	next.UpdatedAt = u.now().UTC()

	moved := next.Point != current.Point
	if moved {
		if err := u.locations.Insert(ctx, next.Point, id); err != nil {
			u.logf("[Jobs] Location move failed job=%s err=%v", id, err)
			return job.Job{}, ErrInternal
		}
	}

	updated, err := u.jobs.Update(ctx, next)
	if err != nil {
		u.logf("[Jobs] Update failed job=%s err=%v", id, err)
		if moved {
			if rerr := u.locations.Insert(ctx, current.Point, id); rerr != nil {
				u.logf("[Jobs] Location rollback failed job=%s err=%v", id, rerr)
			}
		}
		if errors.Is(err, job.ErrNotFound) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, ErrInternal
	}

	oldP, newP := current.Point, updated.Point
	u.notify(ctx, job.Change{JobID: id, Kind: job.ChangeUpdated, OldPoint: &oldP, NewPoint: &newP, At: updated.UpdatedAt})
	return updated, nil
}

func (u *JobCommands) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	current, err := u.load(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := u.jobs.Delete(ctx, id); err != nil {
		u.logf("[Jobs] Delete failed job=%s err=%v", id, err)
		if errors.Is(err, job.ErrNotFound) {
			return ErrJobNotFound
		}
		return ErrInternal
	}
	if err := u.locations.Remove(ctx, id); err != nil {
		// The row is gone; the engine drops index entries without a record
		// and the periodic reload clears them.
		u.logf("[Jobs] Location remove failed job=%s err=%v", id, err)
	}

	p := current.Point
	u.notify(ctx, job.Change{JobID: id, Kind: job.ChangeDeleted, OldPoint: &p, At: u.now().UTC()})
	return nil
}

func (u *JobCommands) Get(ctx context.Context, id uuid.UUID) (job.Job, error) {
	if id == uuid.Nil {
		return job.Job{}, ErrInvalidInput
	}
	j, err := u.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return job.Job{}, ErrJobNotFound
		}
		u.logf("[Jobs] Get failed job=%s err=%v", id, err)
		return job.Job{}, ErrInternal
	}
	return j, nil
}

func (u *JobCommands) load(ctx context.Context, actor Actor, id uuid.UUID) (job.Job, error) {
	if actor.UserID == uuid.Nil {
		return job.Job{}, ErrUnauthorized
	}
	current, err := u.Get(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	if !current.CanBeModifiedBy(actor.UserID, actor.IsAdmin) {
		return job.Job{}, ErrForbidden
	}
	return current, nil
}

func (u *JobCommands) notify(ctx context.Context, change job.Change) {
	if u.hook == nil {
		return
	}
	u.hook.OnJobChanged(ctx, change)
}

func (u *JobCommands) logf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	}
}

func validateJob(j job.Job) error {
	if err := j.Point.Validate(); err != nil {
		return err
	}
	if j.Title == "" || len(j.Title) > 200 {
		return fmt.Errorf("%w: title must be 1-200 characters", ErrInvalidInput)
	}
	if j.Company == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidInput)
	}
	if j.JobType != "" && !job.ValidJobType(j.JobType) {
		return fmt.Errorf("%w: unknown job_type %q", ErrInvalidInput, j.JobType)
	}
	if j.ExperienceLevel != "" && !job.ValidExperienceLevel(j.ExperienceLevel) {
		return fmt.Errorf("%w: unknown experience_level %q", ErrInvalidInput, j.ExperienceLevel)
	}
	for _, s := range []*float64{j.SalaryMin, j.SalaryMax} {
		if s != nil && (math.IsNaN(*s) || math.IsInf(*s, 0) || *s < 0) {
			return fmt.Errorf("%w: salary must be a non-negative number", ErrInvalidInput)
		}
	}
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
		return fmt.Errorf("%w: salary_min exceeds salary_max", ErrInvalidInput)
	}
	return nil
}
