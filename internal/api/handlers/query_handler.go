package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/comment-insight/backend/internal/query"
	"github.com/comment-insight/backend/internal/runs"
)

type QueryHandler struct {
	service *runs.Service
}

func NewQueryHandler(service *runs.Service) *QueryHandler {
	return &QueryHandler{
		service: service,
	}
}

// GetResults filters, sorts and pages through a run's results. Sort defaults
// to filename ascending and the page size to the engine default; sizes above
// the configured maximum are rejected.
func (h *QueryHandler) GetResults(c *fiber.Ctx) error {
	params, err := h.queryParams(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := h.service.Query(c.Params("id"), params)
	if err != nil {
		return respondError(c, statusFor(err), err.Error())
	}
	return c.JSON(page)
}

func (h *QueryHandler) queryParams(c *fiber.Ctx) (query.Params, error) {
	params := query.Params{
		Search:   c.Query("search"),
		Sort:     query.SortKey(c.Query("sort", string(query.SortFilename))),
		Dir:      query.SortDir(c.Query("dir", string(query.Asc))),
		Page:     1,
		PageSize: h.service.Engine().DefaultPageSize(),
	}

	var err error
	if params.Page, err = intQuery(c, "page", params.Page); err != nil {
		return params, err
	}
	if params.PageSize, err = intQuery(c, "pageSize", params.PageSize); err != nil {
		return params, err
	}
	if limit := h.service.Engine().MaxPageSize(); params.PageSize > limit {
		return params, fmt.Errorf("pageSize must be at most %d", limit)
	}
	return params, nil
}

func intQuery(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer: %q", key, raw)
	}
	return n, nil
}
