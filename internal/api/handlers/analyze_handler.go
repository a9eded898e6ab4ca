package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/runs"
	"github.com/comment-insight/backend/pkg/logger"
)

type AnalyzeHandler struct {
	service *runs.Service
}

func NewAnalyzeHandler(service *runs.Service) *AnalyzeHandler {
	return &AnalyzeHandler{
		service: service,
	}
}

// AnalyzeComment analyzes one comment outside of any run. Unlike a batch run,
// a failed analysis is reported as an error instead of an Error row.
func (h *AnalyzeHandler) AnalyzeComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.service.AnalyzeOne(c.UserContext(), req.Text)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		return respondError(c, fiber.StatusBadRequest, "Text is required")
	case err != nil:
		logger.Error("Failed to analyze comment", zap.Error(err))
		return respondError(c, fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(result)
}
