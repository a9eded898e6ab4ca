package query

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comment-insight/backend/internal/models"
)

func sample(n int) models.ResultSet {
	rs := make(models.ResultSet, n)
	for i := range rs {
		rs[i] = models.AnalysisResult{
			SourceFile: fmt.Sprintf("file-%02d.csv", i%3),
			FullText:   fmt.Sprintf("comment number %d", i),
			Sentiment:  models.Sentiments[i%4],
			Confidence: float64(i) / float64(n),
			Summary:    fmt.Sprintf("summary %02d", n-i),
			Keywords:   []string{},
		}
	}
	return rs
}

func TestQuery_Pagination(t *testing.T) {
	e := NewEngine(10, 100)
	rs := sample(25)

	tests := []struct {
		page     int
		wantLen  int
		wantFrom int
		wantTo   int
	}{
		{page: 1, wantLen: 10, wantFrom: 1, wantTo: 10},
		{page: 3, wantLen: 5, wantFrom: 21, wantTo: 25},
		{page: 4, wantLen: 0},
		{page: 99, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			p, err := e.Query(rs, Params{Page: tt.page, PageSize: 10})
			require.NoError(t, err)
			assert.Len(t, p.Items, tt.wantLen)
			assert.NotNil(t, p.Items)
			assert.Equal(t, 25, p.TotalMatches)
			assert.Equal(t, 3, p.TotalPages)
			assert.Equal(t, tt.wantFrom, p.From)
			assert.Equal(t, tt.wantTo, p.To)
		})
	}
}

func TestQuery_InvalidPage(t *testing.T) {
	e := NewEngine(10, 100)
	for _, p := range []Params{{Page: 0, PageSize: 10}, {Page: -1, PageSize: 10}, {Page: 1, PageSize: 0}, {Page: 1, PageSize: -5}} {
		_, err := e.Query(sample(3), p)
		assert.ErrorIs(t, err, ErrInvalidPage)
	}
}

func TestQuery_InvalidSort(t *testing.T) {
	e := NewEngine(10, 100)

	_, err := e.Query(sample(3), Params{Sort: "keywords", Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrInvalidSortKey)

	_, err = e.Query(sample(3), Params{Sort: SortFilename, Dir: "sideways", Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrInvalidSortDir)
}

func TestQuery_HonoursLargePageSize(t *testing.T) {
	e := NewEngine(10, 100)
	rs := sample(150)

	first, err := e.Query(rs, Params{Page: 1, PageSize: 150})
	require.NoError(t, err)
	assert.Equal(t, 150, first.PageSize)
	assert.Len(t, first.Items, 150)
	assert.Equal(t, 1, first.TotalPages)
	assert.Equal(t, 150, first.To)

	second, err := e.Query(rs, Params{Page: 2, PageSize: 150})
	require.NoError(t, err)
	assert.Empty(t, second.Items)
}

func TestQuery_Filter(t *testing.T) {
	rs := models.ResultSet{
		{SourceFile: "survey.csv", FullText: "The STAFF was kind", Summary: "praise"},
		{SourceFile: "notes.txt", FullText: "Too expensive", Summary: "Complains about Staff costs"},
		{SourceFile: "staff-feedback.pdf", FullText: "long document"},
		{SourceFile: "other.csv", FullText: "nothing relevant"},
	}
	e := NewEngine(10, 100)

	p, err := e.Query(rs, Params{Search: "staff", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalMatches)
	assert.Equal(t, rs[:3], models.ResultSet(p.Items))

	p, err = e.Query(rs, Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalMatches)
}

func TestQuery_Idempotent(t *testing.T) {
	e := NewEngine(10, 100)
	rs := sample(30)
	snapshot := slices.Clone(rs)
	params := Params{Search: "comment", Sort: SortSummary, Dir: Desc, Page: 2, PageSize: 7}

	first, err := e.Query(rs, params)
	require.NoError(t, err)
	second, err := e.Query(rs, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, rs, "input must not be reordered")
}

func TestQuery_ConfidenceDirectionsAreReversed(t *testing.T) {
	e := NewEngine(10, 100)
	rs := sample(15)

	asc, err := e.Query(rs, Params{Sort: SortConfidence, Dir: Asc, Page: 1, PageSize: 15})
	require.NoError(t, err)
	desc, err := e.Query(rs, Params{Sort: SortConfidence, Dir: Desc, Page: 1, PageSize: 15})
	require.NoError(t, err)

	reversed := slices.Clone(desc.Items)
	slices.Reverse(reversed)
	assert.Equal(t, asc.Items, reversed)
	assert.True(t, slices.IsSortedFunc(asc.Items, func(a, b models.AnalysisResult) int {
		if a.Confidence < b.Confidence {
			return -1
		}
		if a.Confidence > b.Confidence {
			return 1
		}
		return 0
	}))
}

func TestQuery_StableSort(t *testing.T) {
	rs := models.ResultSet{
		{SourceFile: "b.csv", FullText: "1"},
		{SourceFile: "a.csv", FullText: "2"},
		{SourceFile: "b.csv", FullText: "3"},
		{SourceFile: "a.csv", FullText: "4"},
	}

	p, err := NewEngine(10, 100).Query(rs, Params{Sort: SortFilename, Page: 1, PageSize: 10})
	require.NoError(t, err)

	texts := make([]string, 0, len(p.Items))
	for _, r := range p.Items {
		texts = append(texts, r.FullText)
	}
	assert.Equal(t, []string{"2", "4", "1", "3"}, texts)
}

func TestQuery_SentimentIsLexicographic(t *testing.T) {
	rs := models.ResultSet{
		{Sentiment: models.SentimentPositive},
		{Sentiment: models.SentimentError},
		{Sentiment: models.SentimentNeutral},
		{Sentiment: models.SentimentNegative},
	}

	p, err := NewEngine(10, 100).Query(rs, Params{Sort: SortSentiment, Page: 1, PageSize: 10})
	require.NoError(t, err)

	var got []models.Sentiment
	for _, r := range p.Items {
		got = append(got, r.Sentiment)
	}
	assert.Equal(t, []models.Sentiment{"Error", "Negative", "Neutral", "Positive"}, got)
}
