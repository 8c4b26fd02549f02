package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nearby-jobs/internal/config"
	"nearby-jobs/internal/delivery/http/handler"
	"nearby-jobs/internal/delivery/http/middleware"
	"nearby-jobs/internal/delivery/http/routes"
	v1 "nearby-jobs/internal/delivery/http/routes/v1"
	"nearby-jobs/internal/infrastructure/events"
	"nearby-jobs/internal/scheduler"
	"nearby-jobs/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap wires the container, starts the background workers and builds
// the HTTP app. The returned cleanup stops everything in reverse order.
func Bootstrap(cfg config.Config) (*App, func() error, error) {
	c, err := NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	wireCtx, wireCancel := context.WithTimeout(context.Background(), time.Minute)
	defer wireCancel()
	if err := c.Wire(wireCtx); err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	go c.Hub.Run(bgCtx)
	c.Pool.Start(bgCtx)

	var listener *events.Listener
	if c.Bus != nil {
		listener, err = c.Bus.Subscribe(bgCtx)
		if err != nil {
			c.Logger.Printf("[Events] Subscribe failed, remote changes ignored err=%v", err)
			listener = nil
		} else {
			go listener.Run(bgCtx, c.Invalidator)
		}
	}

	sched := scheduler.New(c.Logger)
	if c.Memory != nil {
		sched.Sweep(cfg.Scheduler.SweepInterval, c.Memory)
	}
	sched.Reload("index_reload", cfg.Scheduler.IndexReloadInterval, c.Locations)
	sched.Reload("region_refresh", cfg.Scheduler.RegionRefreshInterval, c.Regions)
	if err := sched.Start(bgCtx); err != nil {
		bgCancel()
		_ = c.Close()
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})
	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	cleanup := func() error {
		return shutdown(sched, listener, bgCancel, c)
	}
	return &App{Fiber: f, Container: c}, cleanup, nil
}

// shutdown stops the producers of invalidation work, lets the pool drain
// what is already queued, and only then cancels the background context.
func shutdown(sched *scheduler.Scheduler, listener *events.Listener, cancel context.CancelFunc, c *Container) error {
	if sched != nil {
		sched.Stop()
	}
	if listener != nil {
		_ = listener.Close()
	}
	if c != nil && c.Pool != nil {
		c.Pool.Close()
	}
	cancel()
	return c.Close()
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	// Access log wraps the error middleware so it records the final status.
	app.Use(middleware.NewAccessLogMiddleware(c.Logger, "/health").Middleware())
	app.Use(middleware.NewErrorMiddleware(c.Logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	checks := map[string]handler.Pinger{}
	if c.Memory != nil {
		checks["cache"] = c.Memory
	} else if c.Redis != nil {
		checks["cache"] = c.Redis
	}
	routes.NewRegistry(v1.Handlers{
		Auth:    middleware.NewAuthMiddleware(c.JWT),
		Health:  handler.NewHealthHandler(c.DB, checks),
		Nearby:  handler.NewNearbyHandler(c.Nearby),
		Suggest: handler.NewSuggestHandler(c.Suggest),
		Jobs:    handler.NewJobsHandler(c.Jobs),
		Regions: handler.NewRegionHandler(c.RegionUC),
		WS:      ws.NewHandler(c.Hub, c.Logger, c.Config.App.WSAllowedOrigins...),
	}).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
