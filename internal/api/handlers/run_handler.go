package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/ingestion"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/internal/runs"
	"github.com/comment-insight/backend/pkg/logger"
)

// UploadField is the multipart field carrying the uploaded files.
const UploadField = "files"

type RunHandler struct {
	service *runs.Service
}

func NewRunHandler(service *runs.Service) *RunHandler {
	return &RunHandler{
		service: service,
	}
}

// CreateRun ingests a multipart upload, analyzes every extracted comment and
// returns the stored run with its summary.
func (h *RunHandler) CreateRun(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		logger.Error("Failed to parse multipart form", zap.Error(err))
		return respondError(c, fiber.StatusBadRequest, "Invalid multipart upload")
	}

	files, err := readUploads(form.File[UploadField])
	if err != nil {
		logger.Error("Failed to read uploaded files", zap.Error(err))
		return respondError(c, fiber.StatusBadRequest, "Failed to read uploaded files")
	}
	if len(files) == 0 {
		return respondError(c, fiber.StatusBadRequest, "At least one file is required")
	}

	batch := h.service.Ingest(files)

	run, err := h.service.Analyze(c.UserContext(), batch, nil)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyInput) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":            "No comments found in the uploaded files",
				"accepted":         nonNilNames(batch.AcceptedNames()),
				"rejected":         nonNilNames(batch.Rejected),
				"extractionErrors": nonNilFailures(batch.ExtractionErrors),
			})
		}
		logger.Error("Failed to analyze batch", zap.Error(err))
		return respondError(c, statusFor(err), "Failed to analyze batch")
	}

	return c.Status(fiber.StatusCreated).JSON(run)
}

func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.service.Get(c.Params("id"))
	if err != nil {
		return respondError(c, statusFor(err), err.Error())
	}
	return c.JSON(run)
}

func (h *RunHandler) DeleteRun(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("id")); err != nil {
		return respondError(c, statusFor(err), err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func readUploads(headers []*multipart.FileHeader) ([]models.RawFile, error) {
	files := make([]models.RawFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		files = append(files, models.RawFile{
			Name:      fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Data:      data,
		})
	}
	return files, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func nonNilNames(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFailures(s []ingestion.FileError) []ingestion.FileError {
	if s == nil {
		return []ingestion.FileError{}
	}
	return s
}
