// Package handler contains the HTTP handlers for the gateway's API surface.
// Handlers bind requests, call services, and translate errors; policy lives
// in the services and middleware.
package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
	"github.com/eduassign/eduassign-gateway/internal/service"
	"github.com/eduassign/eduassign-gateway/internal/utils"
)

// respondError maps service errors onto HTTP responses. Backend errors keep
// their original status and detail message so the user sees what the grading
// backend reported.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var apiErr *gradeapi.Error
	var validationErrors validator.ValidationErrors

	switch {
	case errors.As(err, &apiErr):
		return utils.SendError(c, apiErr.StatusCode, apiErr.Detail)
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrFileRequired),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrBadEditTarget):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEvaluationNotAllowed),
		errors.Is(err, service.ErrEvaluationInFlight),
		errors.Is(err, service.ErrFeedbackNotReady),
		errors.Is(err, service.ErrFeedbackApproved),
		errors.Is(err, service.ErrNoDraftOpen),
		errors.Is(err, service.ErrDraftOpen):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotSubmissionOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrMalformedFeedback):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	default:
		logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// requiredParam reads a non-empty route parameter.
func requiredParam(c *fiber.Ctx, name string) (string, error) {
	value := c.Params(name)
	if value == "" {
		return "", errors.New("missing identifier")
	}
	return value, nil
}
