package v1

import (
	"nearby-jobs/internal/delivery/http/handler"
	"nearby-jobs/internal/delivery/http/middleware"
	"nearby-jobs/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Auth    *middleware.AuthMiddleware
	Health  *handler.HealthHandler
	Nearby  *handler.NearbyHandler
	Suggest *handler.SuggestHandler
	Jobs    *handler.JobsHandler
	Regions *handler.RegionHandler
	WS      *ws.Handler
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	RegisterJobs(r, h.Auth, h.Nearby, h.Suggest, h.Jobs)
	if h.Regions != nil {
		h.Regions.RegisterRoutes(r)
	}
}
