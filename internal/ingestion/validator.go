package ingestion

import (
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/metrics"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/pkg/logger"
)

var mediaTypeKinds = map[string]models.Kind{
	"text/csv":                 models.KindTabular,
	"application/vnd.ms-excel": models.KindTabular,
	"text/plain":               models.KindPlain,
	"application/pdf":          models.KindDocument,
}

var extensionKinds = map[string]models.Kind{
	".csv": models.KindTabular,
	".txt": models.KindPlain,
	".pdf": models.KindDocument,
}

// ResolveKind determines the media kind from the file-name extension, falling
// back to the declared media type. Media type parameters such as charset are
// ignored.
func ResolveKind(name, mediaType string) models.Kind {
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return kind
	}
	if mediaType == "" {
		return models.KindUnknown
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mediaType))
	}
	if kind, ok := mediaTypeKinds[mt]; ok {
		return kind
	}
	return models.KindUnknown
}

// Validate splits candidates into accepted files and rejected names. A
// candidate is rejected when its kind is unsupported or its name is already
// taken, either by alreadyAccepted or by an earlier candidate. An explicit
// supported Kind on a candidate is kept; otherwise it is resolved.
func Validate(candidates, alreadyAccepted []models.RawFile) (accepted []models.RawFile, rejected []string) {
	taken := make(map[string]struct{}, len(alreadyAccepted)+len(candidates))
	for _, f := range alreadyAccepted {
		taken[f.Name] = struct{}{}
	}

	for _, f := range candidates {
		kind := f.Kind
		if !kind.Supported() {
			kind = ResolveKind(f.Name, f.MediaType)
		}

		if !kind.Supported() {
			logger.Warn("Rejected unsupported file",
				zap.String("file", f.Name),
				zap.String("media_type", f.MediaType),
			)
			metrics.FilesIngested.WithLabelValues("unsupported").Inc()
			rejected = append(rejected, f.Name)
			continue
		}

		if _, dup := taken[f.Name]; dup {
			logger.Warn("Rejected duplicate file", zap.String("file", f.Name))
			metrics.FilesIngested.WithLabelValues("duplicate").Inc()
			rejected = append(rejected, f.Name)
			continue
		}

		taken[f.Name] = struct{}{}
		f.Kind = kind
		accepted = append(accepted, f)
		metrics.FilesIngested.WithLabelValues("accepted").Inc()
	}

	return accepted, rejected
}
