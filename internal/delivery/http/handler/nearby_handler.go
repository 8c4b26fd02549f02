package handler

import (
	"nearby-jobs/internal/delivery/http/dto"
	"nearby-jobs/internal/pkg/response"
	"nearby-jobs/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type NearbyHandler struct {
	uc usecase.NearbyJobsUsecase
}

func NewNearbyHandler(uc usecase.NearbyJobsUsecase) *NearbyHandler {
	return &NearbyHandler{uc: uc}
}

func (h *NearbyHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/jobs/nearby", h.HandleNearby)
}

// HandleNearby passes the raw query parameters through; the composer owns
// parsing and validation.
func (h *NearbyHandler) HandleNearby(c fiber.Ctx) error {
	page, err := h.uc.Nearby(c.Context(), c.Queries())
	if err != nil {
		return mapUsecaseError(err)
	}

	response.SetCacheStatus(c, page.Cached)
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewNearbyPageResponse(page))
}
