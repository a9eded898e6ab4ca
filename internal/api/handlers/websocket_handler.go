package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/ingestion"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/internal/runs"
	"github.com/comment-insight/backend/pkg/logger"
)

// wsFile is an uploaded file sent over the socket; Content is base64 in JSON.
type wsFile struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Kind      string `json:"kind"`
	Content   []byte `json:"content"`
}

type wsRequest struct {
	Type  string   `json:"type"`
	Files []wsFile `json:"files"`
}

// WebSocketHandler runs an analysis over a socket, streaming one progress
// event per finalized comment before the completed run.
type WebSocketHandler struct {
	service *runs.Service
}

func NewWebSocketHandler(service *runs.Service) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsRequest
		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "start" {
			continue
		}

		if err := h.streamRun(c, msg.Files); err != nil {
			logger.Error("Failed to stream run", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) streamRun(c *websocket.Conn, uploads []wsFile) error {
	files := make([]models.RawFile, 0, len(uploads))
	for _, f := range uploads {
		files = append(files, models.RawFile{
			Name:      f.Name,
			MediaType: f.MediaType,
			Kind:      models.Kind(f.Kind),
			Data:      f.Content,
		})
	}

	batch := h.service.Ingest(files)
	if err := h.sendIngested(c, batch); err != nil {
		return err
	}

	var writeErr error
	run, err := h.service.Analyze(context.Background(), batch, func(completed, total int) {
		if writeErr != nil {
			return
		}
		writeErr = c.WriteJSON(map[string]interface{}{
			"type":      "progress",
			"completed": completed,
			"total":     total,
		})
	})
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		msg := "Failed to analyze batch"
		if errors.Is(err, analysis.ErrEmptyInput) {
			msg = "No comments found in the uploaded files"
		}
		return h.sendError(c, msg)
	}

	return c.WriteJSON(map[string]interface{}{
		"type": "complete",
		"run":  run,
	})
}

func (h *WebSocketHandler) sendIngested(c *websocket.Conn, batch *ingestion.Batch) error {
	return c.WriteJSON(map[string]interface{}{
		"type":             "ingested",
		"accepted":         nonNilNames(batch.AcceptedNames()),
		"rejected":         nonNilNames(batch.Rejected),
		"extractionErrors": nonNilFailures(batch.ExtractionErrors),
		"comments":         len(batch.Comments),
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
