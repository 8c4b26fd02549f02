package seeder

import (
	"context"
	"fmt"

	"nearby-jobs/internal/database"
	"nearby-jobs/internal/domain/geo"

	"github.com/google/uuid"
)

var regionNamespace = uuid.MustParse("6f1c1f0e-4b8e-4c1e-9d4a-2f0a6f5b7c11")

type seedRegion struct {
	Code    string
	Name    string
	Country string
	Bounds  geo.Box
}

var defaultRegions = []seedRegion{
	{Code: "JKT", Name: "Jakarta", Country: "ID", Bounds: geo.Box{MinLat: -6.38, MinLng: 106.68, MaxLat: -6.08, MaxLng: 106.98}},
	{Code: "BDG", Name: "Bandung", Country: "ID", Bounds: geo.Box{MinLat: -7.05, MinLng: 107.50, MaxLat: -6.80, MaxLng: 107.75}},
	{Code: "SBY", Name: "Surabaya", Country: "ID", Bounds: geo.Box{MinLat: -7.40, MinLng: 112.60, MaxLat: -7.15, MaxLng: 112.85}},
	{Code: "YOG", Name: "Yogyakarta", Country: "ID", Bounds: geo.Box{MinLat: -7.90, MinLng: 110.30, MaxLat: -7.70, MaxLng: 110.45}},
	{Code: "SIN", Name: "Singapore", Country: "SG", Bounds: geo.Box{MinLat: 1.20, MinLng: 103.60, MaxLat: 1.48, MaxLng: 104.05}},
}

type RegionsSeeder struct{}

func (RegionsSeeder) Name() string { return "regions" }

func (RegionsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := RequireColumns(ctx, db, "regions", "id", "code", "name", "country", "min_lat", "min_lng", "max_lat", "max_lng", "is_active"); err != nil {
		return err
	}

	return database.InTx(ctx, db, func(tx database.Tx) error {
		for _, it := range defaultRegions {
			if err := it.Bounds.Validate(); err != nil {
				return fmt.Errorf("region %s: %w", it.Code, err)
			}
			_, err := tx.Exec(
				ctx,
				`INSERT INTO regions (id, code, name, country, min_lat, min_lng, max_lat, max_lng)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 ON CONFLICT (code) DO NOTHING`,
				uuid.NewSHA1(regionNamespace, []byte(it.Code)),
				it.Code,
				it.Name,
				it.Country,
				it.Bounds.MinLat,
				it.Bounds.MinLng,
				it.Bounds.MaxLat,
				it.Bounds.MaxLng,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
