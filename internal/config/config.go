package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Search    SearchConfig
	JWT       JWTConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string

	// WSAllowedOrigins restricts websocket upgrades; empty allows any origin.
	WSAllowedOrigins []string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int

	// Channel carries job-change events between instances.
	Channel string
}

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

type CacheConfig struct {
	Backend string
	TTL     time.Duration
	LockTTL time.Duration

	InvalidationWorkers int
	InvalidationQueue   int
}

type SearchConfig struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	DefaultPageSize int
	MaxPageSize     int
}

type JWTConfig struct {
	AccessSecret    string
	Issuer          string
	AccessExpiresIn time.Duration
}

type SchedulerConfig struct {
	SweepInterval         time.Duration
	IndexReloadInterval   time.Duration
	RegionRefreshInterval time.Duration
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// LoadDotEnv reads .env into the process environment when the file exists.
// Variables that are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optDefault := func(key, def string) string {
		if v := opt(key); v != "" {
			return v
		}
		return def
	}
	optInt := func(key string, def int) int {
		v := opt(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return n
	}
	optFloat := func(key string, def float64) float64 {
		v := opt(key)
		if v == "" {
			return def
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return f
	}
	optList := func(key string) []string {
		var out []string
		for _, part := range strings.Split(opt(key), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	// Durations accept Go syntax ("90s") or a bare number of seconds.
	optDuration := func(key string, def time.Duration) time.Duration {
		v := opt(key)
		if v == "" {
			return def
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return d
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),

		WSAllowedOrigins: optList("WS_ALLOWED_ORIGINS"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  optDefault("DB_SSL_MODE", "disable"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", time.Hour),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 30*time.Minute),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", time.Minute),
	}

	cfg.Redis = RedisConfig{
		URL:      opt("REDIS_URL"),
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
		Channel:  optDefault("REDIS_JOBS_CHANNEL", "jobs:changed"),
	}

	cfg.Cache = CacheConfig{
		Backend:             strings.ToLower(optDefault("CACHE_BACKEND", CacheBackendRedis)),
		TTL:                 optDuration("NEARBY_CACHE_TTL", 600*time.Second),
		LockTTL:             optDuration("NEARBY_CACHE_LOCK_TTL", 30*time.Second),
		InvalidationWorkers: optInt("CACHE_INVALIDATION_WORKERS", 2),
		InvalidationQueue:   optInt("CACHE_INVALIDATION_QUEUE", 256),
	}
	if cfg.Cache.Backend != CacheBackendRedis && cfg.Cache.Backend != CacheBackendMemory {
		invalid = append(invalid, "CACHE_BACKEND")
	}

	cfg.Search = SearchConfig{
		DefaultRadiusKm: optFloat("SEARCH_DEFAULT_RADIUS_KM", 50),
		MaxRadiusKm:     optFloat("SEARCH_MAX_RADIUS_KM", 20015),
		DefaultPageSize: optInt("SEARCH_DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:     optInt("SEARCH_MAX_PAGE_SIZE", 100),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:    req("JWT_ACCESS_SECRET"),
		Issuer:          optDefault("JWT_ISSUER", "nearby-jobs"),
		AccessExpiresIn: optDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
	}

	cfg.Scheduler = SchedulerConfig{
		SweepInterval:         optDuration("SCHEDULER_SWEEP_INTERVAL", time.Minute),
		IndexReloadInterval:   optDuration("SCHEDULER_INDEX_RELOAD_INTERVAL", 15*time.Minute),
		RegionRefreshInterval: optDuration("SCHEDULER_REGION_REFRESH_INTERVAL", 10*time.Minute),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
