package v1

import (
	"nearby-jobs/internal/delivery/http/handler"
	"nearby-jobs/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

// RegisterJobs mounts the proximity search, autocomplete and the job write
// endpoints. The static /jobs paths go first so /jobs/:id does not capture
// them.
func RegisterJobs(r fiber.Router, auth *middleware.AuthMiddleware, nearby *handler.NearbyHandler, suggest *handler.SuggestHandler, jobs *handler.JobsHandler) {
	if r == nil {
		return
	}
	if nearby != nil {
		nearby.RegisterRoutes(r)
	}
	if suggest != nil {
		suggest.RegisterRoutes(r)
	}
	if jobs == nil || auth == nil {
		return
	}
	jobs.RegisterRoutes(r, auth.Middleware())
}
