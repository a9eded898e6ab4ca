package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comment-insight/backend/internal/models"
)

type submitterFunc func(ctx context.Context, c models.Comment) (models.AnalysisResult, error)

func (f submitterFunc) Submit(ctx context.Context, c models.Comment) (models.AnalysisResult, error) {
	return f(ctx, c)
}

func comments(n int) []models.Comment {
	out := make([]models.Comment, n)
	for i := range out {
		out[i] = models.Comment{Text: fmt.Sprintf("comment %d", i), SourceFile: "batch.csv"}
	}
	return out
}

func TestRun_EmptyInput(t *testing.T) {
	o := NewOrchestrator(submitterFunc(func(context.Context, models.Comment) (models.AnalysisResult, error) {
		t.Fatal("no submission expected")
		return models.AnalysisResult{}, nil
	}), 4)

	results, err := o.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Nil(t, results)
}

func TestRun_PreservesOrderAndContainsFailures(t *testing.T) {
	input := comments(20)
	o := NewOrchestrator(submitterFunc(func(_ context.Context, c models.Comment) (models.AnalysisResult, error) {
		// finish in reverse order of submission
		var idx int
		_, _ = fmt.Sscanf(c.Text, "comment %d", &idx)
		time.Sleep(time.Duration(20-idx) * time.Millisecond)
		if idx%5 == 0 {
			return models.AnalysisResult{}, &AnalysisError{Attempts: 1, Err: errors.New("down")}
		}
		return models.NewResult(c, models.Verdict{Sentiment: models.SentimentPositive, Confidence: 0.8}), nil
	}), 0)

	results, err := o.Run(context.Background(), input, nil)
	require.NoError(t, err)
	require.Len(t, results, len(input))

	for i, r := range results {
		assert.Equal(t, input[i].Text, r.FullText)
		assert.Equal(t, input[i].SourceFile, r.SourceFile)
		if i%5 == 0 {
			assert.Equal(t, models.FailedResult(input[i]), r)
		} else {
			assert.Equal(t, models.SentimentPositive, r.Sentiment)
		}
	}
}

func TestRun_ProgressIsStrictlyIncreasing(t *testing.T) {
	input := comments(50)
	o := NewOrchestrator(submitterFunc(func(_ context.Context, c models.Comment) (models.AnalysisResult, error) {
		return models.NewResult(c, models.Verdict{Sentiment: models.SentimentNeutral}), nil
	}), 8)

	var (
		mu   sync.Mutex
		seen []int
	)
	_, err := o.Run(context.Background(), input, func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, len(input), total)
		seen = append(seen, completed)
	})
	require.NoError(t, err)

	require.Len(t, seen, len(input))
	for i, c := range seen {
		assert.Equal(t, i+1, c)
	}
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	o := NewOrchestrator(submitterFunc(func(_ context.Context, c models.Comment) (models.AnalysisResult, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return models.NewResult(c, models.Verdict{Sentiment: models.SentimentNeutral}), nil
	}), 3)

	_, err := o.Run(context.Background(), comments(30), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRun_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o := NewOrchestrator(submitterFunc(func(ctx context.Context, c models.Comment) (models.AnalysisResult, error) {
		cancel()
		if err := ctx.Err(); err != nil {
			return models.AnalysisResult{}, err
		}
		return models.NewResult(c, models.Verdict{Sentiment: models.SentimentPositive}), nil
	}), 1)

	results, err := o.Run(ctx, comments(3), nil)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, models.SentimentPositive, r.Sentiment)
	}
}
