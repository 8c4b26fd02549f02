package seeder

import (
	"context"
	"fmt"
	"time"

	"nearby-jobs/internal/database"

	"github.com/google/uuid"
)

var demoOwner = uuid.MustParse("0b6d8f7e-2c3a-4f55-8a61-1d2e3f405162")

type DemoJobsSeeder struct{}

func (DemoJobsSeeder) Name() string { return "demo_jobs" }

func (DemoJobsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := RequireColumns(ctx, db, "jobs", "id", "owner_id", "title", "company", "category", "job_type", "experience_level", "is_remote", "status"); err != nil {
		return err
	}
	if err := RequireColumns(ctx, db, "job_locations", "job_id", "lat", "lng"); err != nil {
		return err
	}

	items := []struct {
		Title    string
		Company  string
		Category string
		JobType  string
		Level    string
		Remote   bool
		Lat, Lng float64
	}{
		{"Backend Engineer (Go)", "Nusantara Labs", "engineering", "full_time", "mid", false, -6.2088, 106.8456},
		{"Barista", "Kopi Pagi", "hospitality", "part_time", "entry", false, -6.1862, 106.8341},
		{"DevOps Engineer", "CloudKita", "engineering", "full_time", "senior", true, -6.2297, 106.8295},
		{"Data Analyst", "InsightWorks", "data", "contract", "junior", false, -6.9175, 107.6191},
		{"Warehouse Associate", "LogiCepat", "logistics", "temporary", "entry", false, -7.2575, 112.7521},
		{"Mobile Engineer", "AppForge", "engineering", "contract", "mid", false, -7.7956, 110.3695},
		{"Site Reliability Engineer", "ScaleUp", "engineering", "full_time", "lead", false, 1.2840, 103.8510},
	}

	now := time.Now().UTC()
	return database.InTx(ctx, db, func(tx database.Tx) error {
		for _, it := range items {
			id := uuid.NewSHA1(demoOwner, []byte(it.Title+"|"+it.Company))
			affected, err := tx.Exec(
				ctx,
				`INSERT INTO jobs (id, owner_id, title, company, category, job_type, experience_level, is_remote, status, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'open', $9, $9)
				 ON CONFLICT (id) DO NOTHING`,
				id, demoOwner, it.Title, it.Company, it.Category, it.JobType, it.Level, it.Remote, now,
			)
			if err != nil {
				return err
			}
			// Already seeded; leave any edited location alone.
			if affected == 0 {
				continue
			}
			if _, err := tx.Exec(ctx, `INSERT INTO job_locations (job_id, lat, lng) VALUES ($1, $2, $3)`, id, it.Lat, it.Lng); err != nil {
				return fmt.Errorf("location for %s: %w", it.Title, err)
			}
		}
		return nil
	})
}
