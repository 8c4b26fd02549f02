package repository

import (
	"context"

	"nearby-jobs/internal/database"
	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"

	"github.com/google/uuid"
)

// fetchChunk bounds the size of one ANY($1) parameter.
const fetchChunk = 500

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const jobColumns = `j.id, j.owner_id, j.title, j.company, j.description, j.category, j.job_type,
	j.experience_level, j.is_remote, j.salary_min, j.salary_max, j.status, j.created_at, j.updated_at,
	COALESCE(l.lat, 0), COALESCE(l.lng, 0)`

// Create stores the job row. The point lives in job_locations and is written
// by the location store.
func (r *PostgresJobRepository) Create(ctx context.Context, j job.Job) (job.Job, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (id, owner_id, title, company, description, category, job_type,
			experience_level, is_remote, salary_min, salary_max, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		j.ID, j.OwnerID, j.Title, j.Company, j.Description, j.Category, j.JobType,
		j.ExperienceLevel, j.IsRemote, j.SalaryMin, j.SalaryMax, string(j.Status), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return job.Job{}, err
	}
	return j, nil
}

func (r *PostgresJobRepository) Update(ctx context.Context, j job.Job) (job.Job, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE jobs SET title = $2, company = $3, description = $4, category = $5, job_type = $6,
			experience_level = $7, is_remote = $8, salary_min = $9, salary_max = $10, status = $11,
			updated_at = $12
		 WHERE id = $1`,
		j.ID, j.Title, j.Company, j.Description, j.Category, j.JobType,
		j.ExperienceLevel, j.IsRemote, j.SalaryMin, j.SalaryMax, string(j.Status), j.UpdatedAt,
	)
	if err != nil {
		return job.Job{}, err
	}
	if n == 0 {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (r *PostgresJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return job.ErrNotFound
	}
	return nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (job.Job, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+jobColumns+`
		 FROM jobs j
		 LEFT JOIN job_locations l ON l.job_id = j.id
		 WHERE j.id = $1`,
		id,
	)
	j, err := scanJob(row)
	if err != nil {
		if database.NoRows(err) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

// FetchJobs loads the jobs with a stored location. Unknown IDs are absent
// from the result.
func (r *PostgresJobRepository) FetchJobs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]job.Job, error) {
	out := make(map[uuid.UUID]job.Job, len(ids))
	for start := 0; start < len(ids); start += fetchChunk {
		end := start + fetchChunk
		if end > len(ids) {
			end = len(ids)
		}
		if err := r.fetchInto(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresJobRepository) fetchInto(ctx context.Context, ids []uuid.UUID, out map[uuid.UUID]job.Job) error {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+`
		 FROM jobs j
		 JOIN job_locations l ON l.job_id = j.id
		 WHERE j.id = ANY($1)`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return err
		}
		out[j.ID] = j
	}
	return rows.Err()
}

func scanJob(row database.Row) (job.Job, error) {
	var j job.Job
	var status string
	var lat, lng float64
	if err := row.Scan(
		&j.ID, &j.OwnerID, &j.Title, &j.Company, &j.Description, &j.Category, &j.JobType,
		&j.ExperienceLevel, &j.IsRemote, &j.SalaryMin, &j.SalaryMax, &status, &j.CreatedAt, &j.UpdatedAt,
		&lat, &lng,
	); err != nil {
		return job.Job{}, err
	}
	j.Status = job.Status(status)
	j.Point = geo.Point{Lat: lat, Lng: lng}
	return j, nil
}
