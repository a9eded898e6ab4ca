package analysis

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/metrics"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/pkg/circuitbreaker"
	"github.com/comment-insight/backend/pkg/logger"
	"github.com/comment-insight/backend/pkg/retry"
)

// Cache stores successful verdicts keyed by comment text.
type Cache interface {
	GetVerdict(ctx context.Context, text string) (*models.Verdict, error)
	SetVerdict(ctx context.Context, text string, v models.Verdict, ttl time.Duration) error
}

// Client analyzes a single comment, retrying rate-limited and unreachable
// attempts with exponential backoff.
type Client struct {
	transport Transport
	retryCfg  retry.Config
	breaker   *circuitbreaker.CircuitBreaker
	cache     Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

type Option func(*Client)

// WithRetry sets the attempt budget and the delay after the first failure.
// The delay doubles after each subsequent failure.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.retryCfg.MaxAttempts = maxAttempts
		c.retryCfg.InitialDelay = baseDelay
	}
}

func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		retryCfg: retry.Config{
			MaxAttempts:     3,
			InitialDelay:    time.Second,
			MaxDelay:        time.Minute,
			Multiplier:      2,
			RetryableErrors: []error{ErrRateLimited, ErrTransport},
		},
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retryCfg.Logger = c.logger
	c.retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.AnalysisAttempts.WithLabelValues(attemptOutcome(err)).Inc()
	}
	return c
}

// Submit analyzes one comment. On success the result carries the comment's
// text and source file unchanged. On failure the error is an *AnalysisError
// holding the last cause.
func (c *Client) Submit(ctx context.Context, comment models.Comment) (models.AnalysisResult, error) {
	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	if v := c.cached(ctx, comment.Text); v != nil {
		return models.NewResult(comment, *v), nil
	}

	attempts := 0
	verdict, err := retry.DoWithResult(ctx, c.retryCfg, func() (models.Verdict, error) {
		attempts++
		return c.attempt(ctx, comment.Text)
	})
	if err != nil {
		metrics.AnalysisAttempts.WithLabelValues(attemptOutcome(err)).Inc()
		c.logger.Warn("Comment analysis failed",
			zap.String("source_file", comment.SourceFile),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		if attempts == 0 {
			attempts = 1
		}
		return models.AnalysisResult{}, &AnalysisError{Attempts: attempts, Err: err}
	}

	metrics.AnalysisAttempts.WithLabelValues("success").Inc()
	metrics.ConfidenceScore.Observe(verdict.Confidence)

	if c.cache != nil {
		if err := c.cache.SetVerdict(ctx, comment.Text, verdict, c.cacheTTL); err != nil {
			c.logger.Warn("Failed to cache verdict", zap.Error(err))
		}
	}

	return models.NewResult(comment, verdict), nil
}

func (c *Client) attempt(ctx context.Context, text string) (models.Verdict, error) {
	var verdict models.Verdict
	call := func() error {
		resp, err := c.transport.Analyze(ctx, text)
		if err != nil {
			return err
		}
		verdict, err = resp.Verdict()
		return err
	}

	if c.breaker == nil {
		return verdict, call()
	}
	return verdict, c.breaker.Execute(ctx, call)
}

func (c *Client) cached(ctx context.Context, text string) *models.Verdict {
	if c.cache == nil {
		return nil
	}
	v, err := c.cache.GetVerdict(ctx, text)
	if err != nil {
		c.logger.Warn("Verdict cache lookup failed", zap.Error(err))
		return nil
	}
	if v == nil {
		metrics.CacheMisses.Inc()
		return nil
	}
	metrics.CacheHits.Inc()
	return v
}

func attemptOutcome(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.As(err, &statusErr):
		return "status"
	default:
		return "error"
	}
}
