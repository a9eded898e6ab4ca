package analysis

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited marks a too-many-requests answer. Retryable.
	ErrRateLimited = errors.New("analysis service rate limited")
	// ErrTransport marks a failure to reach the service at all. Retryable.
	ErrTransport = errors.New("analysis service unreachable")
	// ErrInvalidResponse marks a success status carrying an unusable body.
	ErrInvalidResponse = errors.New("invalid analysis response")
	// ErrAnalysis matches any AnalysisError via errors.Is.
	ErrAnalysis = errors.New("analysis failed")
	// ErrEmptyInput is returned by a run that has no comments to analyze.
	ErrEmptyInput = errors.New("no comments to analyze")
)

// StatusError is a terminal non-success status from the analysis service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("analysis service returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("analysis service returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// AnalysisError is returned once a comment's analysis has failed for good,
// carrying the last observed cause.
type AnalysisError struct {
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysis
}
