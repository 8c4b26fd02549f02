package handler

import (
	"errors"

	"nearby-jobs/internal/delivery/http/middleware"
	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/pkg/response"
	"nearby-jobs/internal/search"
	"nearby-jobs/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	var inputErr *usecase.InputError
	if errors.As(err, &inputErr) {
		return middleware.BadRequest(inputErr.Error(), fiber.Map{"field": inputErr.Key}, err)
	}

	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrInvalidRadius),
		errors.Is(err, search.ErrInvalidFilter),
		errors.Is(err, usecase.ErrInvalidInput):
		return middleware.BadRequest(err.Error(), nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.Unauthorized("Unauthorized", err)
	case errors.Is(err, usecase.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
	case errors.Is(err, usecase.ErrRegionNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Region not found", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func actorFrom(c fiber.Ctx) (usecase.Actor, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return usecase.Actor{}, false
	}
	return usecase.Actor{UserID: p.UserID, IsAdmin: p.IsAdmin}, true
}
