package report

import (
	"sort"

	"github.com/comment-insight/backend/internal/models"
)

// NoKeyword is reported as the top keyword when no result carries one.
const NoKeyword = "N/A"

// KeywordWeight is one entry of the keyword cloud.
type KeywordWeight struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
	Weight  int    `json:"weight"`
}

type Summary struct {
	Total             int                      `json:"total"`
	SentimentCounts   map[models.Sentiment]int `json:"sentimentCounts"`
	DominantSentiment models.Sentiment         `json:"dominantSentiment"`
	TopKeyword        string                   `json:"topKeyword"`
	KeywordCounts     map[string]int           `json:"keywordCounts"`
	ChartCounts       map[models.Sentiment]int `json:"chartCounts"`
	KeywordCloud      []KeywordWeight          `json:"keywordCloud"`
}

// Summarize aggregates a result set. The dominant sentiment compares only
// Positive against Negative; a tie is Neutral. Among keywords sharing the
// highest count, the one seen first in result order wins.
func Summarize(results models.ResultSet) Summary {
	counts := make(map[models.Sentiment]int, len(models.Sentiments))
	for _, s := range models.Sentiments {
		counts[s] = 0
	}

	keywordCounts := make(map[string]int)
	var order []string

	for _, r := range results {
		counts[r.Sentiment]++
		for _, k := range r.Keywords {
			if _, seen := keywordCounts[k]; !seen {
				order = append(order, k)
			}
			keywordCounts[k]++
		}
	}

	top, best := NoKeyword, 0
	for _, k := range order {
		if keywordCounts[k] > best {
			top, best = k, keywordCounts[k]
		}
	}

	return Summary{
		Total:             len(results),
		SentimentCounts:   counts,
		DominantSentiment: dominant(counts),
		TopKeyword:        top,
		KeywordCounts:     keywordCounts,
		ChartCounts: map[models.Sentiment]int{
			models.SentimentPositive: counts[models.SentimentPositive],
			models.SentimentNegative: counts[models.SentimentNegative],
			models.SentimentNeutral:  counts[models.SentimentNeutral],
		},
		KeywordCloud: cloud(keywordCounts),
	}
}

func dominant(counts map[models.Sentiment]int) models.Sentiment {
	pos, neg := counts[models.SentimentPositive], counts[models.SentimentNegative]
	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func cloud(counts map[string]int) []KeywordWeight {
	out := make([]KeywordWeight, 0, len(counts))
	for k, n := range counts {
		out = append(out, KeywordWeight{Keyword: k, Count: n, Weight: 10 + min(n*5, 90)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}
