package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/comment-insight/backend/internal/models"
)

var (
	ErrInvalidPage    = errors.New("invalid page request")
	ErrInvalidSortKey = errors.New("invalid sort key")
	ErrInvalidSortDir = errors.New("invalid sort direction")
)

type SortKey string

const (
	SortNone       SortKey = ""
	SortFilename   SortKey = "filename"
	SortSentiment  SortKey = "sentiment"
	SortConfidence SortKey = "confidence"
	SortSummary    SortKey = "summary"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Params is one immutable query over a result set. An empty Search matches
// everything and an empty Sort keeps submission order.
type Params struct {
	Search   string
	Sort     SortKey
	Dir      SortDir
	Page     int
	PageSize int
}

// Page is one slice of the filtered, sorted results. From and To are the
// 1-based positions of the first and last item, both 0 for an empty page.
type Page struct {
	Items        []models.AnalysisResult `json:"items"`
	TotalMatches int                     `json:"totalMatches"`
	Page         int                     `json:"page"`
	PageSize     int                     `json:"pageSize"`
	TotalPages   int                     `json:"totalPages"`
	From         int                     `json:"from"`
	To           int                     `json:"to"`
}

type Engine struct {
	defaultPageSize int
	maxPageSize     int
}

func NewEngine(defaultPageSize, maxPageSize int) *Engine {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &Engine{defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

func (e *Engine) DefaultPageSize() int {
	return e.defaultPageSize
}

// MaxPageSize is the largest page size the HTTP layer accepts. Query itself
// honours any positive size.
func (e *Engine) MaxPageSize() int {
	return e.maxPageSize
}

// Query filters, sorts and paginates results without modifying them. A page
// past the end is empty.
func (e *Engine) Query(results models.ResultSet, p Params) (Page, error) {
	if p.Page < 1 {
		return Page{}, fmt.Errorf("%w: page %d must be at least 1", ErrInvalidPage, p.Page)
	}
	if p.PageSize <= 0 {
		return Page{}, fmt.Errorf("%w: page size %d must be positive", ErrInvalidPage, p.PageSize)
	}
	pageSize := p.PageSize

	compare, err := comparator(p.Sort, p.Dir)
	if err != nil {
		return Page{}, err
	}

	matched := filter(results, p.Search)
	if compare != nil {
		slices.SortStableFunc(matched, compare)
	}

	total := len(matched)
	page := Page{
		Items:        []models.AnalysisResult{},
		TotalMatches: total,
		Page:         p.Page,
		PageSize:     pageSize,
		TotalPages:   (total + pageSize - 1) / pageSize,
	}

	start := (p.Page - 1) * pageSize
	if start >= total {
		return page, nil
	}
	end := min(start+pageSize, total)

	page.Items = matched[start:end]
	page.From = start + 1
	page.To = end
	return page, nil
}

// filter always returns a fresh slice so sorting never touches the input.
func filter(results models.ResultSet, search string) []models.AnalysisResult {
	term := strings.ToLower(search)
	out := make([]models.AnalysisResult, 0, len(results))
	for _, r := range results {
		if term == "" ||
			strings.Contains(strings.ToLower(r.FullText), term) ||
			strings.Contains(strings.ToLower(r.Summary), term) ||
			strings.Contains(strings.ToLower(r.SourceFile), term) {
			out = append(out, r)
		}
	}
	return out
}

func comparator(key SortKey, dir SortDir) (func(a, b models.AnalysisResult) int, error) {
	var sign int
	switch dir {
	case Asc, "":
		sign = 1
	case Desc:
		sign = -1
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortDir, dir)
	}

	var base func(a, b models.AnalysisResult) int
	switch key {
	case SortNone:
		return nil, nil
	case SortFilename:
		base = func(a, b models.AnalysisResult) int { return cmp.Compare(a.SourceFile, b.SourceFile) }
	case SortSentiment:
		base = func(a, b models.AnalysisResult) int { return cmp.Compare(a.Sentiment, b.Sentiment) }
	case SortConfidence:
		base = func(a, b models.AnalysisResult) int { return cmp.Compare(a.Confidence, b.Confidence) }
	case SortSummary:
		base = func(a, b models.AnalysisResult) int { return cmp.Compare(a.Summary, b.Summary) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}

	return func(a, b models.AnalysisResult) int { return sign * base(a, b) }, nil
}
