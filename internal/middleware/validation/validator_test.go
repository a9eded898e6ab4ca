package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{MaxCommentLength: 10}))
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/api/v1/analyze", ok)
	app.Post("/api/v1/runs", ok)
	app.Get("/api/v1/runs/:id", RunID(), ok)
	return app
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		want        int
	}{
		{name: "valid comment", method: "POST", path: "/api/v1/analyze", contentType: "application/json", body: `{"text":"short"}`, want: fiber.StatusOK},
		{name: "empty comment passes to handler", method: "POST", path: "/api/v1/analyze", contentType: "application/json", body: `{"text":""}`, want: fiber.StatusOK},
		{name: "missing text", method: "POST", path: "/api/v1/analyze", contentType: "application/json", body: `{"comment":"x"}`, want: fiber.StatusBadRequest},
		{name: "malformed json", method: "POST", path: "/api/v1/analyze", contentType: "application/json", body: `{`, want: fiber.StatusBadRequest},
		{name: "too long", method: "POST", path: "/api/v1/analyze", contentType: "application/json", body: `{"text":"far too long for this"}`, want: fiber.StatusRequestEntityTooLarge},
		{name: "unsupported content type", method: "POST", path: "/api/v1/analyze", contentType: "text/xml", body: `<a/>`, want: fiber.StatusUnsupportedMediaType},
		{name: "upload needs multipart", method: "POST", path: "/api/v1/runs", contentType: "application/json", body: `{}`, want: fiber.StatusBadRequest},
		{name: "valid run id", method: "GET", path: "/api/v1/runs/7f1c6a2e-3c55-4b0e-9a53-1f0f3c0a9b11", want: fiber.StatusOK},
		{name: "invalid run id", method: "GET", path: "/api/v1/runs/not-a-uuid", want: fiber.StatusBadRequest},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
