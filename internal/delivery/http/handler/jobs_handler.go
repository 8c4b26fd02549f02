package handler

import (
	"nearby-jobs/internal/delivery/http/dto"
	"nearby-jobs/internal/delivery/http/middleware"
	"nearby-jobs/internal/pkg/response"
	"nearby-jobs/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type JobsHandler struct {
	uc usecase.JobUsecase
}

type createJobRequest struct {
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	JobType         string   `json:"job_type"`
	ExperienceLevel string   `json:"experience_level"`
	IsRemote        bool     `json:"is_remote"`
	SalaryMin       *float64 `json:"salary_min"`
	SalaryMax       *float64 `json:"salary_max"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Status          string   `json:"status"`
}

type updateJobRequest struct {
	Title           *string  `json:"title"`
	Company         *string  `json:"company"`
	Description     *string  `json:"description"`
	Category        *string  `json:"category"`
	JobType         *string  `json:"job_type"`
	ExperienceLevel *string  `json:"experience_level"`
	IsRemote        *bool    `json:"is_remote"`
	SalaryMin       *float64 `json:"salary_min"`
	SalaryMax       *float64 `json:"salary_max"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Status          *string  `json:"status"`
}

func NewJobsHandler(uc usecase.JobUsecase) *JobsHandler {
	return &JobsHandler{uc: uc}
}

// RegisterRoutes mounts the job routes. Writes run behind auth.
func (h *JobsHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	if r == nil || auth == nil {
		return
	}

	r.Get("/jobs/:id", h.Get)
	r.Post("/jobs", auth, h.Create)
	r.Patch("/jobs/:id", auth, h.Update)
	r.Delete("/jobs/:id", auth, h.Delete)
}

func (h *JobsHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Bad request", nil, err)
	}

	j, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(j))
}

func (h *JobsHandler) Create(c fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return middleware.Unauthorized("Unauthorized", nil)
	}

	var req createJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.BadRequest("Bad request", nil, err)
	}
	if req.Lat == nil || req.Lng == nil {
		return middleware.BadRequest("lat and lng are required", fiber.Map{"field": "lat"}, nil)
	}

	created, err := h.uc.Create(c.Context(), actor, usecase.CreateJobInput{
		Title:           req.Title,
		Company:         req.Company,
		Description:     req.Description,
		Category:        req.Category,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		IsRemote:        req.IsRemote,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		Lat:             *req.Lat,
		Lng:             *req.Lng,
		Status:          req.Status,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Created(c, dto.NewJobResponse(created))
}

func (h *JobsHandler) Update(c fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return middleware.Unauthorized("Unauthorized", nil)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Bad request", nil, err)
	}

	var req updateJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.BadRequest("Bad request", nil, err)
	}

	updated, err := h.uc.Update(c.Context(), actor, id, usecase.UpdateJobInput{
		Title:           req.Title,
		Company:         req.Company,
		Description:     req.Description,
		Category:        req.Category,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		IsRemote:        req.IsRemote,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		Lat:             req.Lat,
		Lng:             req.Lng,
		Status:          req.Status,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(updated))
}

func (h *JobsHandler) Delete(c fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return middleware.Unauthorized("Unauthorized", nil)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Bad request", nil, err)
	}

	if err := h.uc.Delete(c.Context(), actor, id); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
