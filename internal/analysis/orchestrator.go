package analysis

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/comment-insight/backend/internal/metrics"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/pkg/logger"
)

// ProgressFunc is called once per finalized comment with a strictly
// increasing completed count.
type ProgressFunc func(completed, total int)

// Submitter analyzes one comment. *Client implements it.
type Submitter interface {
	Submit(ctx context.Context, comment models.Comment) (models.AnalysisResult, error)
}

// Orchestrator fans a batch of comments out to a Submitter and gathers one
// result per comment in submission order.
type Orchestrator struct {
	client      Submitter
	concurrency int
	logger      *zap.Logger
}

// NewOrchestrator bounds in-flight analyses to concurrency; zero or less
// leaves them unbounded.
func NewOrchestrator(client Submitter, concurrency int) *Orchestrator {
	return &Orchestrator{
		client:      client,
		concurrency: concurrency,
		logger:      logger.GetLogger(),
	}
}

// Run analyzes every comment and returns exactly one result per input, at the
// input's index. A failed comment yields an Error result rather than failing
// the run. Once dispatched, analyses run to completion even if ctx is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context, comments []models.Comment, onProgress ProgressFunc) (models.ResultSet, error) {
	total := len(comments)
	if total == 0 {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	workCtx := context.WithoutCancel(ctx)
	results := make(models.ResultSet, total)

	var (
		mu        sync.Mutex
		completed int
		failed    int
	)

	g := new(errgroup.Group)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for i, comment := range comments {
		g.Go(func() error {
			result, err := o.client.Submit(workCtx, comment)
			if err != nil {
				result = models.FailedResult(comment)
			}
			results[i] = result
			metrics.AnalysisResults.WithLabelValues(string(result.Sentiment)).Inc()

			mu.Lock()
			defer mu.Unlock()
			completed++
			if err != nil {
				failed++
			}
			if onProgress != nil {
				onProgress(completed, total)
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.RunSize.Observe(float64(total))
	o.logger.Info("Analysis run finished",
		zap.Int("comments", total),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}
