package repository

import (
	"context"

	"nearby-jobs/internal/database"
	"nearby-jobs/internal/domain/job"
)

type PostgresRegionRepository struct {
	db database.DB
}

func NewPostgresRegionRepository(db database.DB) *PostgresRegionRepository {
	return &PostgresRegionRepository{db: db}
}

const regionColumns = `id, code, name, country, min_lat, min_lng, max_lat, max_lng, is_active, created_at`

func (r *PostgresRegionRepository) ListActive(ctx context.Context) ([]job.Region, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+regionColumns+` FROM regions WHERE is_active ORDER BY code`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Region, 0)
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRegion(row database.Row) (job.Region, error) {
	var reg job.Region
	if err := row.Scan(
		&reg.ID, &reg.Code, &reg.Name, &reg.Country,
		&reg.Bounds.MinLat, &reg.Bounds.MinLng, &reg.Bounds.MaxLat, &reg.Bounds.MaxLng,
		&reg.IsActive, &reg.CreatedAt,
	); err != nil {
		return job.Region{}, err
	}
	return reg, nil
}
