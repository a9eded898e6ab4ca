package ingestion

import (
	"errors"
	"fmt"

	"github.com/comment-insight/backend/internal/models"
)

// ErrExtraction matches any ExtractionError via errors.Is.
var ErrExtraction = errors.New("extraction failed")

// ExtractionError reports that one file's bytes could not be decoded as its
// declared kind. It never aborts the rest of a batch.
type ExtractionError struct {
	File string
	Kind models.Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.File, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
