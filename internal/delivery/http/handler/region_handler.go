package handler

import (
	"strconv"

	"nearby-jobs/internal/delivery/http/dto"
	"nearby-jobs/internal/delivery/http/middleware"
	"nearby-jobs/internal/pkg/response"
	"nearby-jobs/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type RegionHandler struct {
	uc usecase.RegionUsecase
}

func NewRegionHandler(uc usecase.RegionUsecase) *RegionHandler {
	return &RegionHandler{uc: uc}
}

func (h *RegionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/regions")
	grp.Get("/", h.List)
	grp.Get("/suggest", h.Suggest)
	grp.Get("/popular", h.Popular)
	grp.Get("/:code", h.Get)
}

func (h *RegionHandler) List(c fiber.Ctx) error {
	items, err := h.uc.List(c.Context())
	if err != nil {
		return mapUsecaseError(err)
	}

	res := make([]dto.RegionResponse, 0, len(items))
	for _, it := range items {
		res = append(res, dto.NewRegionResponse(it))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *RegionHandler) Get(c fiber.Ctx) error {
	sum, err := h.uc.Get(c.Context(), c.Params("code"))
	if err != nil {
		return mapUsecaseError(err)
	}

	res := dto.NewRegionResponse(sum.Region)
	res.JobCount = &sum.JobCount
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *RegionHandler) Suggest(c fiber.Ctx) error {
	q := c.Query("q")
	items, err := h.uc.Suggest(c.Context(), q)
	if err != nil {
		return mapUsecaseError(err)
	}

	res := dto.RegionSuggestResponse{Query: q, Suggestions: make([]dto.RegionResponse, 0, len(items))}
	for _, it := range items {
		res.Suggestions = append(res.Suggestions, dto.NewRegionResponse(it))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *RegionHandler) Popular(c fiber.Ctx) error {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > usecase.MaxPopular {
			return middleware.BadRequest("invalid limit", fiber.Map{"field": "limit"}, err)
		}
		limit = n
	}

	items, err := h.uc.Popular(c.Context(), limit)
	if err != nil {
		return mapUsecaseError(err)
	}

	res := make([]dto.RegionResponse, 0, len(items))
	for _, it := range items {
		r := dto.NewRegionResponse(it.Region)
		r.JobCount = &it.JobCount
		res = append(res, r)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}
