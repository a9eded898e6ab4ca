package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/comment-insight/backend/internal/models"
)

var (
	errInvalidUTF8     = errors.New("content is not valid UTF-8")
	errUnsupportedKind = errors.New("unsupported media kind")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract returns the comments contained in one validated file, in document
// order. Plain-text and portable-document files yield a single comment;
// tabular files yield one per data row.
func Extract(file models.RawFile) ([]string, error) {
	switch file.Kind {
	case models.KindTabular:
		text, err := decodeText(file.Data)
		if err != nil {
			return nil, &ExtractionError{File: file.Name, Kind: file.Kind, Err: err}
		}
		return extractTabular(text), nil

	case models.KindPlain:
		text, err := decodeText(file.Data)
		if err != nil {
			return nil, &ExtractionError{File: file.Name, Kind: file.Kind, Err: err}
		}
		return []string{text}, nil

	case models.KindDocument:
		text, err := extractDocument(file.Data)
		if err != nil {
			return nil, &ExtractionError{File: file.Name, Kind: file.Kind, Err: err}
		}
		return []string{text}, nil
	}

	return nil, &ExtractionError{
		File: file.Name,
		Kind: file.Kind,
		Err:  fmt.Errorf("%w: %q", errUnsupportedKind, file.Kind),
	}
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}
