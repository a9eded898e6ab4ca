package models

import "strings"

// Kind is the media kind an uploaded file is decoded as.
type Kind string

const (
	KindUnknown  Kind = ""
	KindTabular  Kind = "tabular-text"
	KindPlain    Kind = "plain-text"
	KindDocument Kind = "portable-document"
)

func (k Kind) Supported() bool {
	switch k {
	case KindTabular, KindPlain, KindDocument:
		return true
	}
	return false
}

// Sentiment is the canonical, capitalized verdict label.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentError    Sentiment = "Error"
)

// Sentiments lists every label in display order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentError}

// ParseSentiment maps a remote label to its canonical form, ignoring case and
// surrounding whitespace. Error is never produced from a remote label.
func ParseSentiment(label string) (Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return SentimentPositive, true
	case "negative":
		return SentimentNegative, true
	case "neutral":
		return SentimentNeutral, true
	}
	return "", false
}

// FailedSummary is the summary text carried by every Error result.
const FailedSummary = "Failed to analyze."

// RawFile is one uploaded file. Name is unique within an intake batch.
type RawFile struct {
	Name      string
	MediaType string
	Kind      Kind
	Data      []byte
}

// Comment is one unit of text to analyze.
type Comment struct {
	Text       string
	SourceFile string
}

// Verdict is the normalized answer of the remote service for one text.
type Verdict struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Summary    string    `json:"summary"`
	Keywords   []string  `json:"keywords"`
}

type AnalysisResult struct {
	SourceFile string    `json:"filename"`
	FullText   string    `json:"fullText"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Summary    string    `json:"summary"`
	Keywords   []string  `json:"keywords"`
}

// NewResult combines a comment with the verdict obtained for it.
func NewResult(c Comment, v Verdict) AnalysisResult {
	keywords := v.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return AnalysisResult{
		SourceFile: c.SourceFile,
		FullText:   c.Text,
		Sentiment:  v.Sentiment,
		Confidence: v.Confidence,
		Summary:    v.Summary,
		Keywords:   keywords,
	}
}

// FailedResult is the sentinel row recorded for a comment whose analysis failed.
func FailedResult(c Comment) AnalysisResult {
	return AnalysisResult{
		SourceFile: c.SourceFile,
		FullText:   c.Text,
		Sentiment:  SentimentError,
		Confidence: 0,
		Summary:    FailedSummary,
		Keywords:   []string{},
	}
}

// ResultSet holds one result per submitted comment, in submission order.
// It is treated as immutable once a run completes.
type ResultSet []AnalysisResult
