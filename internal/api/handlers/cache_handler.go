package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/pkg/logger"
)

// Flusher drops every cached verdict.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

type CacheHandler struct {
	cache Flusher
}

func NewCacheHandler(cache Flusher) *CacheHandler {
	return &CacheHandler{
		cache: cache,
	}
}

func (h *CacheHandler) Flush(c *fiber.Ctx) error {
	removed, err := h.cache.Flush(c.UserContext())
	if err != nil {
		logger.Error("Failed to flush verdict cache", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Failed to flush verdict cache")
	}
	return c.JSON(fiber.Map{
		"removed": removed,
	})
}
