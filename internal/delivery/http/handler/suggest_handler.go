package handler

import (
	"nearby-jobs/internal/delivery/http/dto"
	"nearby-jobs/internal/pkg/response"
	"nearby-jobs/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SuggestHandler struct {
	uc usecase.SuggestUsecase
}

func NewSuggestHandler(uc usecase.SuggestUsecase) *SuggestHandler {
	return &SuggestHandler{uc: uc}
}

func (h *SuggestHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/jobs/autocomplete", h.Autocomplete)
}

func (h *SuggestHandler) Autocomplete(c fiber.Ctx) error {
	q := c.Query("q")
	items, err := h.uc.Autocomplete(c.Context(), q)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewAutocompleteResponse(q, items))
}
