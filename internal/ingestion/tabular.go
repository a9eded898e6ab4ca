package ingestion

import (
	"strings"
)

// commentHeaders is the ordered preference list used to locate the comment
// column. Each token is tried against every header cell before the next one.
var commentHeaders = []string{"comment", "text", "feedback", "suggestion"}

// extractTabular pulls one comment per data row out of comma-delimited text.
// The first non-blank line is the header; rows shorter than the comment
// column contribute nothing.
func extractTabular(content string) []string {
	var rows []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	column := commentColumn(splitRow(rows[0]))

	comments := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := splitRow(row)
		if column >= len(cells) {
			continue
		}
		if cell := unquote(strings.TrimSpace(cells[column])); strings.TrimSpace(cell) != "" {
			comments = append(comments, cell)
		}
	}
	return comments
}

func commentColumn(header []string) int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(h, `"`, "")))
	}

	for _, token := range commentHeaders {
		for i, h := range normalized {
			if strings.Contains(h, token) {
				return i
			}
		}
	}
	return 0
}

// splitRow splits a line on commas that are not enclosed in double quotes. A
// comma separates fields only when an even number of quote characters follow
// it on the same line, so an unbalanced quote never swallows the rest of the
// row.
func splitRow(line string) []string {
	quotesAfter := strings.Count(line, `"`)

	var cells []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			quotesAfter--
		case ',':
			if quotesAfter%2 == 0 {
				cells = append(cells, line[start:i])
				start = i + 1
			}
		}
	}
	return append(cells, line[start:])
}

// unquote strips at most one leading and one trailing double quote.
func unquote(cell string) string {
	cell = strings.TrimPrefix(cell, `"`)
	return strings.TrimSuffix(cell, `"`)
}
