package ingestion

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractDocument returns the text of every page in page order. Within a page
// the text runs are joined with a single space; pages are concatenated
// directly.
func extractDocument(data []byte) (text string, err error) {
	// The pdf package reports malformed content streams by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", fmt.Errorf("page %d: missing page object", i)
		}
		sb.WriteString(strings.Join(pageFragments(page.Content().Text), " "))
	}
	return sb.String(), nil
}

// pageFragments merges the glyph-level text items of one page into runs. A
// glyph continues the current run when it sits on the same baseline and
// starts no further than a fraction of the font size past the previous glyph.
func pageFragments(items []pdf.Text) []string {
	var (
		fragments []string
		current   strings.Builder
		prev      pdf.Text
	)

	flush := func() {
		if current.Len() > 0 {
			fragments = append(fragments, current.String())
			current.Reset()
		}
	}

	for i, t := range items {
		if i > 0 && !continuesRun(prev, t) {
			flush()
		}
		current.WriteString(t.S)
		prev = t
	}
	flush()

	return fragments
}

func continuesRun(prev, next pdf.Text) bool {
	if math.Abs(prev.Y-next.Y) > 0.5 {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	tolerance := 0.15 * math.Max(prev.FontSize, 1)
	return gap >= -tolerance && gap <= tolerance
}
