package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	MaxCommentLength    int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects request bodies of an unexpected content type and
// oversized or malformed single-comment requests before they reach a handler.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxCommentLength == 0 {
		cfg.MaxCommentLength = 20000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON, fiber.MIMEMultipartForm}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType != "" && !allowed(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		switch {
		case strings.HasSuffix(c.Path(), "/runs"):
			if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Uploads must be multipart/form-data",
				})
			}

		case strings.HasSuffix(c.Path(), "/analyze"):
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			text, ok := req["text"].(string)
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Text is required and must be a string",
				})
			}

			if utf8.RuneCountInString(text) > cfg.MaxCommentLength {
				cfg.Logger.Warn("Comment exceeds maximum length",
					zap.String("ip", c.IP()),
					zap.Int("length", utf8.RuneCountInString(text)),
				)
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Text exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}

// RunID rejects run routes whose :id parameter is not a UUID.
func RunID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := uuid.Parse(c.Params("id")); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid run id",
			})
		}
		return c.Next()
	}
}

func allowed(contentType string, types []string) bool {
	for _, t := range types {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
