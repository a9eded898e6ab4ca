package ingestion

import (
	"strings"

	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/metrics"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/pkg/logger"
)

// FileError describes a file whose comments could not be extracted.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Batch is the outcome of ingesting and extracting one set of uploads.
type Batch struct {
	Accepted         []models.RawFile
	Rejected         []string
	Comments         []models.Comment
	ExtractionErrors []FileError
}

// AcceptedNames lists accepted file names in intake order.
func (b *Batch) AcceptedNames() []string {
	names := make([]string, 0, len(b.Accepted))
	for _, f := range b.Accepted {
		names = append(names, f.Name)
	}
	return names
}

type Processor struct {
	extract func(models.RawFile) ([]string, error)
}

func NewProcessor() *Processor {
	return &Processor{extract: Extract}
}

// Process validates files against an empty working set and extracts comments
// from every accepted file. Files are handled independently: a rejected or
// undecodable file is reported and the rest of the batch continues.
func (p *Processor) Process(files []models.RawFile) *Batch {
	accepted, rejected := Validate(files, nil)
	comments, failures := p.Collect(accepted)

	logger.Info("Batch ingested",
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", len(rejected)),
		zap.Int("extraction_errors", len(failures)),
		zap.Int("comments", len(comments)),
	)

	return &Batch{
		Accepted:         accepted,
		Rejected:         rejected,
		Comments:         comments,
		ExtractionErrors: failures,
	}
}

// Collect extracts comments from validated files, preserving file order and
// the order of comments within each file. Blank comments are skipped.
func (p *Processor) Collect(files []models.RawFile) ([]models.Comment, []FileError) {
	var (
		comments []models.Comment
		failures []FileError
	)

	for _, file := range files {
		texts, err := p.extract(file)
		if err != nil {
			logger.Warn("Failed to extract comments",
				zap.String("file", file.Name),
				zap.String("kind", string(file.Kind)),
				zap.Error(err),
			)
			metrics.ExtractionTotal.WithLabelValues(string(file.Kind), "error").Inc()
			failures = append(failures, FileError{File: file.Name, Error: err.Error()})
			continue
		}
		metrics.ExtractionTotal.WithLabelValues(string(file.Kind), "success").Inc()

		kept := 0
		for _, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			comments = append(comments, models.Comment{Text: text, SourceFile: file.Name})
			kept++
		}
		metrics.CommentsExtracted.WithLabelValues(string(file.Kind)).Add(float64(kept))

		logger.Debug("Comments extracted",
			zap.String("file", file.Name),
			zap.Int("comments", kept),
		)
	}

	return comments, failures
}
