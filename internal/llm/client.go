package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/pkg/logger"
)

const systemPrompt = `You classify customer comments.
Reply with a single JSON object and nothing else:
{"sentiment": "Positive" | "Negative" | "Neutral", "confidence": number between 0 and 1, "summary": one short sentence, "keywords": up to 5 lowercase keywords}`

// Client is an analysis.Transport backed by an OpenAI-compatible chat
// completion endpoint running in JSON mode.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ analysis.Transport = (*Client)(nil)

// NewClient builds a client; an empty baseURL targets the public API.
func NewClient(apiKey, baseURL, model string, temperature float32, maxTokens int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("base_url", cfg.BaseURL),
	)

	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *Client) Analyze(ctx context.Context, text string) (*analysis.Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", analysis.ErrInvalidResponse)
	}

	logger.Debug("LLM verdict generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return parseResponse(resp.Choices[0].Message.Content)
}

// parseResponse decodes the model's JSON answer, tolerating a fenced code
// block around it.
func parseResponse(content string) (*analysis.Response, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var out analysis.Response
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrInvalidResponse, err)
	}
	return &out, nil
}

func classify(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return analysis.ErrRateLimited
	case status != 0:
		return &analysis.StatusError{Code: status, Body: err.Error()}
	default:
		return fmt.Errorf("%w: %v", analysis.ErrTransport, err)
	}
}
