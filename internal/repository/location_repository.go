package repository

import (
	"context"

	"nearby-jobs/internal/database"
	"nearby-jobs/internal/domain/geo"

	"github.com/google/uuid"
)

// PostgresLocationRepository persists job points for the location store.
type PostgresLocationRepository struct {
	db database.DB
}

func NewPostgresLocationRepository(db database.DB) *PostgresLocationRepository {
	return &PostgresLocationRepository{db: db}
}

func (r *PostgresLocationRepository) UpsertLocation(ctx context.Context, ownerID uuid.UUID, p geo.Point) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_locations (job_id, lat, lng, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (job_id) DO UPDATE SET lat = EXCLUDED.lat, lng = EXCLUDED.lng, updated_at = now()`,
		ownerID, p.Lat, p.Lng,
	)
	return err
}

func (r *PostgresLocationRepository) DeleteLocation(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM job_locations WHERE job_id = $1`, ownerID)
	return err
}

func (r *PostgresLocationRepository) GetLocation(ctx context.Context, ownerID uuid.UUID) (geo.Point, bool, error) {
	var p geo.Point
	err := r.db.QueryRow(ctx, `SELECT lat, lng FROM job_locations WHERE job_id = $1`, ownerID).Scan(&p.Lat, &p.Lng)
	if err != nil {
		if database.NoRows(err) {
			return geo.Point{}, false, nil
		}
		return geo.Point{}, false, err
	}
	return p, true, nil
}

func (r *PostgresLocationRepository) ListLocations(ctx context.Context, fn func(ownerID uuid.UUID, p geo.Point) error) error {
	rows, err := r.db.Query(ctx, `SELECT job_id, lat, lng FROM job_locations`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var p geo.Point
		if err := rows.Scan(&id, &p.Lat, &p.Lng); err != nil {
			return err
		}
		if err := fn(id, p); err != nil {
			return err
		}
	}
	return rows.Err()
}
