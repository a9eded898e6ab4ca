package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/query"
	"github.com/comment-insight/backend/internal/runs"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrInvalidPage),
		errors.Is(err, query.ErrInvalidSortKey),
		errors.Is(err, query.ErrInvalidSortDir):
		return fiber.StatusBadRequest
	case errors.Is(err, analysis.ErrEmptyInput):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, runs.ErrRunNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
