package usecase

import (
	"context"
	"errors"
	"testing"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"
	"nearby-jobs/internal/location"

	"github.com/google/uuid"
)

type failingLocations struct {
	insertErr error
}

func (f failingLocations) Insert(context.Context, geo.Point, uuid.UUID) error { return f.insertErr }
func (f failingLocations) Remove(context.Context, uuid.UUID) error            { return nil }

func TestJobUsecase_CreateNotifiesHook(t *testing.T) {
	repo := newMemJobRepo()
	locs := location.NewStore(nil, nil)
	hook := &recordingHook{}
	uc := NewJobUsecase(repo, locs, hook, nil)

	owner := Actor{UserID: uuid.New()}
	j, err := uc.Create(context.Background(), owner, CreateJobInput{
		Title: " Barista ", Company: "Cafe", JobType: "Part Time", Lat: 40.1234567, Lng: -75,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if j.OwnerID != owner.UserID || j.Status != job.StatusOpen || j.Title != "Barista" || j.JobType != "part_time" {
		t.Fatalf("unexpected job %+v", j)
	}
	if j.Point.Lat != 40.123457 {
		t.Fatalf("expected rounded latitude, got %v", j.Point.Lat)
	}
	if p, ok := locs.Point(j.ID); !ok || p != j.Point {
		t.Fatalf("expected indexed point")
	}

	c := hook.last()
	if c.Kind != job.ChangeCreated || c.JobID != j.ID || c.OldPoint != nil || c.NewPoint == nil {
		t.Fatalf("unexpected change %+v", c)
	}
}

func TestJobUsecase_CreateValidation(t *testing.T) {
	uc := NewJobUsecase(newMemJobRepo(), location.NewStore(nil, nil), nil, nil)
	owner := Actor{UserID: uuid.New()}
	lo, hi := 10.0, 5.0

	cases := []struct {
		name string
		in   CreateJobInput
		want error
	}{
		{"no title", CreateJobInput{Company: "c"}, ErrInvalidInput},
		{"bad lat", CreateJobInput{Title: "t", Company: "c", Lat: 95}, geo.ErrInvalidCoordinate},
		{"bad type", CreateJobInput{Title: "t", Company: "c", JobType: "gig"}, ErrInvalidInput},
		{"salary order", CreateJobInput{Title: "t", Company: "c", SalaryMin: &lo, SalaryMax: &hi}, ErrInvalidInput},
		{"bad status", CreateJobInput{Title: "t", Company: "c", Status: "draft"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := uc.Create(context.Background(), owner, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := uc.Create(context.Background(), Actor{}, CreateJobInput{Title: "t", Company: "c"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJobUsecase_CreateCompensatesOnIndexFailure(t *testing.T) {
	repo := newMemJobRepo()
	hook := &recordingHook{}
	uc := NewJobUsecase(repo, failingLocations{insertErr: errors.New("index down")}, hook, nil)

	_, err := uc.Create(context.Background(), Actor{UserID: uuid.New()}, CreateJobInput{Title: "t", Company: "c", Lat: 1, Lng: 1})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if len(repo.jobs) != 0 || len(repo.deleted) != 1 {
		t.Fatalf("expected compensating delete, jobs=%d deleted=%d", len(repo.jobs), len(repo.deleted))
	}
	if len(hook.changes) != 0 {
		t.Fatalf("failed write must not notify")
	}
}

func TestJobUsecase_OwnerOrAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newMemJobRepo()
	hook := &recordingHook{}
	uc := NewJobUsecase(repo, location.NewStore(nil, nil), hook, nil)

	owner := Actor{UserID: uuid.New()}
	stranger := Actor{UserID: uuid.New()}
	admin := Actor{UserID: uuid.New(), IsAdmin: true}

	j, err := uc.Create(ctx, owner, CreateJobInput{Title: "t", Company: "c", Lat: 1, Lng: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "new"
	if _, err := uc.Update(ctx, stranger, j.ID, UpdateJobInput{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := uc.Delete(ctx, stranger, j.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	lat := 2.0
	updated, err := uc.Update(ctx, admin, j.ID, UpdateJobInput{Title: &title, Lat: &lat})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Title != "new" || updated.Point.Lat != 2 || updated.OwnerID != owner.UserID {
		t.Fatalf("unexpected update %+v", updated)
	}
	c := hook.last()
	if c.Kind != job.ChangeUpdated || c.OldPoint.Lat != 1 || c.NewPoint.Lat != 2 || len(c.Points()) != 2 {
		t.Fatalf("unexpected change %+v", c)
	}

	if err := uc.Delete(ctx, owner, j.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if c := hook.last(); c.Kind != job.ChangeDeleted || c.OldPoint == nil || c.NewPoint != nil {
		t.Fatalf("unexpected change %+v", c)
	}
	if _, err := uc.Get(ctx, j.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := uc.Delete(ctx, owner, j.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound on second delete, got %v", err)
	}
}

func TestJobUsecase_UpdateRollsBackIndex(t *testing.T) {
	ctx := context.Background()
	repo := newMemJobRepo()
	locs := location.NewStore(nil, nil)
	uc := NewJobUsecase(repo, locs, nil, nil)
	owner := Actor{UserID: uuid.New()}

	j, err := uc.Create(ctx, owner, CreateJobInput{Title: "t", Company: "c", Lat: 1, Lng: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.updateErr = errors.New("db down")
	lat := 5.0
	if _, err := uc.Update(ctx, owner, j.ID, UpdateJobInput{Lat: &lat}); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if p, _ := locs.Point(j.ID); p != j.Point {
		t.Fatalf("expected index rollback to %v, got %v", j.Point, p)
	}
}
