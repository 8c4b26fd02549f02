package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"nearby-jobs/internal/config"
	"nearby-jobs/internal/database"
	dbpostgres "nearby-jobs/internal/database/postgres"
	"nearby-jobs/internal/infrastructure/cache"
	"nearby-jobs/internal/infrastructure/events"
	"nearby-jobs/internal/location"
	"nearby-jobs/internal/pkg/jwt"
	"nearby-jobs/internal/pkg/workerpool"
	"nearby-jobs/internal/region"
	"nearby-jobs/internal/repository"
	"nearby-jobs/internal/search"
	"nearby-jobs/internal/usecase"
	"nearby-jobs/internal/ws"
)

// Container holds the long-lived dependencies of the service.
type Container struct {
	Config config.Config
	Logger *log.Logger
	DB     database.DB

	Memory *cache.Memory
	Redis  *cache.Redis
	Cache  usecase.SearchCache

	Locations *location.Store
	Regions   *region.Catalog
	Bus       *events.RedisBus
	Pool      *workerpool.Pool
	Hub       *ws.Hub
	JWT       *jwt.HMACService

	Invalidator *usecase.Invalidator
	Nearby      *usecase.NearbyJobs
	Jobs        *usecase.JobCommands
	RegionUC    *usecase.Regions
	Suggest     *usecase.Suggestions
}

// NewContainer connects to Postgres only. The seed command uses it as is;
// the server calls Wire afterwards.
func NewContainer(cfg config.Config) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
	db, err := dbpostgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	return &Container{Config: cfg, Logger: logger, DB: db}, nil
}

// Wire builds the cache, indexes and use cases and loads the in-memory
// state from the database.
func (c *Container) Wire(ctx context.Context) error {
	cfg := c.Config

	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		c.Memory = cache.NewMemory(cfg.Cache.TTL)
		c.Cache = c.Memory
	default:
		opts, err := cache.RedisOptions(cfg.Redis)
		if err != nil {
			return err
		}
		c.Redis = cache.NewRedis(opts, cfg.Cache.TTL, c.Logger)
		c.Cache = c.Redis
		if client := c.Redis.Client(); client != nil {
			c.Bus = events.NewRedisBus(client, cfg.Redis.Channel, c.Logger)
		}
	}

	jobRepo := repository.NewPostgresJobRepository(c.DB)
	c.Locations = location.NewStore(repository.NewPostgresLocationRepository(c.DB), c.Logger)
	c.Regions = region.NewCatalog(repository.NewPostgresRegionRepository(c.DB), c.Logger)

	if err := c.Locations.Load(ctx); err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	if err := c.Regions.Load(ctx); err != nil {
		return fmt.Errorf("load regions: %w", err)
	}

	engine := search.NewEngine(c.Locations, jobRepo, c.Regions, c.Logger)
	composer := usecase.NewComposer(usecase.ComposerOptions{
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		MaxRadiusKm:     cfg.Search.MaxRadiusKm,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
	}, c.Regions)
	results := usecase.NewResultCache(c.Cache, cfg.Cache.TTL, c.Logger)

	c.Hub = ws.NewHub(c.Logger)
	c.Pool = workerpool.New(cfg.Cache.InvalidationWorkers, cfg.Cache.InvalidationQueue, func(err error) {
		c.Logger.Printf("[Invalidator] Task failed err=%v", err)
	})

	opts := usecase.InvalidatorOptions{Pool: c.Pool, Notifier: c.Hub, Index: c.Locations}
	if c.Bus != nil {
		opts.Publisher = c.Bus
	}
	c.Invalidator = usecase.NewInvalidator(results, opts, c.Logger)

	c.Nearby = usecase.NewNearbyJobsUsecase(composer, engine, jobRepo, results, cfg.Cache.LockTTL, c.Logger)
	c.Jobs = usecase.NewJobUsecase(jobRepo, c.Locations, c.Invalidator, c.Logger)
	c.RegionUC = usecase.NewRegionUsecase(c.Regions, c.Locations)
	c.Suggest = usecase.NewSuggestUsecase(c.Regions)
	c.JWT = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.Issuer, cfg.JWT.AccessExpiresIn)

	return nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
