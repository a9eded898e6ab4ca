package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/comment-insight/backend/internal/models"
)

// Response is the wire shape of one verdict. Sentiment is required; the other
// fields are optional.
type Response struct {
	Sentiment  string   `json:"sentiment"`
	Confidence *float64 `json:"confidence,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// Transport performs one remote "analyze text" call. Implementations must
// classify failures with ErrRateLimited, ErrTransport, *StatusError or
// ErrInvalidResponse, and must be safe for concurrent use.
type Transport interface {
	Analyze(ctx context.Context, text string) (*Response, error)
}

// Verdict validates a response and converts it to canonical form. The label
// is matched case-insensitively; a label outside Positive/Negative/Neutral
// makes the response invalid. Missing confidence is 0 and values outside
// [0,1] are clamped. Keywords are lowercased and blanks dropped.
func (r *Response) Verdict() (models.Verdict, error) {
	if r == nil {
		return models.Verdict{}, fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}

	sentiment, ok := models.ParseSentiment(r.Sentiment)
	if !ok {
		return models.Verdict{}, fmt.Errorf("%w: unrecognized sentiment %q", ErrInvalidResponse, r.Sentiment)
	}

	var confidence float64
	if r.Confidence != nil && !math.IsNaN(*r.Confidence) {
		confidence = math.Max(0, math.Min(1, *r.Confidence))
	}

	keywords := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	return models.Verdict{
		Sentiment:  sentiment,
		Confidence: confidence,
		Summary:    r.Summary,
		Keywords:   keywords,
	}, nil
}
