package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/ingestion"
	"github.com/comment-insight/backend/internal/metrics"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/internal/query"
	"github.com/comment-insight/backend/internal/report"
	"github.com/comment-insight/backend/pkg/logger"
)

// SingleCommentSource is the source file recorded for a directly submitted
// comment.
const SingleCommentSource = "Single Comment"

// Run is one completed ingestion-through-aggregation cycle.
type Run struct {
	ID               string                `json:"id"`
	CreatedAt        time.Time             `json:"createdAt"`
	Accepted         []string              `json:"accepted"`
	Rejected         []string              `json:"rejected"`
	ExtractionErrors []ingestion.FileError `json:"extractionErrors"`
	Results          models.ResultSet      `json:"-"`
	Summary          report.Summary        `json:"summary"`
}

type Service struct {
	processor    *ingestion.Processor
	client       analysis.Submitter
	orchestrator *analysis.Orchestrator
	registry     *Registry
	engine       *query.Engine
	logger       *zap.Logger
}

func NewService(client analysis.Submitter, concurrency int, registry *Registry, engine *query.Engine) *Service {
	return &Service{
		processor:    ingestion.NewProcessor(),
		client:       client,
		orchestrator: analysis.NewOrchestrator(client, concurrency),
		registry:     registry,
		engine:       engine,
		logger:       logger.GetLogger(),
	}
}

func (s *Service) Engine() *query.Engine {
	return s.engine
}

// Ingest validates and extracts a batch of uploads.
func (s *Service) Ingest(files []models.RawFile) *ingestion.Batch {
	return s.processor.Process(files)
}

// Analyze runs every comment of an ingested batch, summarizes the results and
// stores the run. A batch without comments fails with analysis.ErrEmptyInput.
func (s *Service) Analyze(ctx context.Context, batch *ingestion.Batch, onProgress analysis.ProgressFunc) (*Run, error) {
	results, err := s.orchestrator.Run(ctx, batch.Comments, onProgress)
	if err != nil {
		status := "failed"
		if errors.Is(err, analysis.ErrEmptyInput) {
			status = "empty"
		}
		metrics.RunsTotal.WithLabelValues(status).Inc()
		return nil, err
	}

	run := &Run{
		ID:               uuid.New().String(),
		CreatedAt:        time.Now().UTC(),
		Accepted:         nonNil(batch.AcceptedNames()),
		Rejected:         nonNil(batch.Rejected),
		ExtractionErrors: batch.ExtractionErrors,
		Results:          results,
		Summary:          report.Summarize(results),
	}
	if run.ExtractionErrors == nil {
		run.ExtractionErrors = []ingestion.FileError{}
	}

	s.registry.Put(run)
	metrics.RunsTotal.WithLabelValues("completed").Inc()

	s.logger.Info("Run stored",
		zap.String("run_id", run.ID),
		zap.Int("results", len(results)),
		zap.String("dominant_sentiment", string(run.Summary.DominantSentiment)),
	)

	return run, nil
}

// AnalyzeOne analyzes a single comment outside of any run.
func (s *Service) AnalyzeOne(ctx context.Context, text string) (models.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return models.AnalysisResult{}, fmt.Errorf("%w: comment text is empty", analysis.ErrEmptyInput)
	}
	return s.client.Submit(ctx, models.Comment{Text: text, SourceFile: SingleCommentSource})
}

func (s *Service) Get(id string) (*Run, error) {
	return s.registry.Get(id)
}

// Delete discards a stored run.
func (s *Service) Delete(id string) error {
	if err := s.registry.Delete(id); err != nil {
		return err
	}
	s.logger.Info("Run discarded", zap.String("run_id", id))
	return nil
}

// Query pages through the results of a stored run.
func (s *Service) Query(id string, p query.Params) (query.Page, error) {
	run, err := s.registry.Get(id)
	if err != nil {
		return query.Page{}, err
	}
	return s.engine.Query(run.Results, p)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
