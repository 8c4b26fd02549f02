package handler

import (
	"context"
	"time"

	"nearby-jobs/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports each dependency. The database is required; other
// checks only mark the service degraded.
type HealthHandler struct {
	db     Pinger
	checks map[string]Pinger
}

func NewHealthHandler(db Pinger, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{db: db, checks: checks}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Handle)
}

func (h *HealthHandler) Handle(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := fiber.StatusOK
	deps := fiber.Map{}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			deps["database"] = "down"
			status = "down"
			code = fiber.StatusServiceUnavailable
		} else {
			deps["database"] = "up"
		}
	}
	for name, p := range h.checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			deps[name] = "down"
			if status == "ok" {
				status = "degraded"
			}
			continue
		}
		deps[name] = "up"
	}

	return response.Success(c, code, status, fiber.Map{"status": status, "dependencies": deps})
}
