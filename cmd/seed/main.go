package main

import (
	"context"
	"flag"
	"log"
	"time"

	"nearby-jobs/internal/app"
	"nearby-jobs/internal/config"
	"nearby-jobs/internal/database/migration"
	"nearby-jobs/internal/database/seeder"
)

func main() {
	dir := flag.String("migrations", "", "directory with V<n>__name.sql files (defaults to the embedded set)")
	demo := flag.Bool("demo", false, "also insert sample jobs")
	skipSeed := flag.Bool("migrate-only", false, "apply migrations without seeding")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("failed to read .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	c, err := app.NewContainer(cfg)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer migCancel()
	r := migration.Runner{Dir: *dir, Logger: c.Logger}
	if err := r.Run(migCtx, c.DB.SQLDB()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if *skipSeed {
		return
	}

	seeders := seeder.Defaults()
	if *demo {
		seeders = seeder.WithDemo()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := (seeder.Runner{Seeders: seeders, Logger: c.Logger}).Run(ctx, c.DB); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}
