package evidence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"stockscan/internal/model"
)

// DefaultMaxDocumentSize limits how much of a single document is read.
// 5MB covers broker reports and filings while preventing memory
// exhaustion from unexpectedly large files.
const DefaultMaxDocumentSize int64 = 5 * 1024 * 1024

// FileSource reads user-uploaded research documents from configured
// paths. It implements UploadedSource.
type FileSource struct {
	paths   []string
	maxSize int64
	logger  *slog.Logger
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithMaxDocumentSize overrides the per-document read limit.
func WithMaxDocumentSize(n int64) FileSourceOption {
	return func(s *FileSource) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithFileSourceLogger sets a custom logger.
func WithFileSourceLogger(logger *slog.Logger) FileSourceOption {
	return func(s *FileSource) {
		s.logger = logger
	}
}

// NewFileSource creates a FileSource over the given document paths.
func NewFileSource(paths []string, opts ...FileSourceOption) *FileSource {
	s := &FileSource{
		paths:   paths,
		maxSize: DefaultMaxDocumentSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// FetchUploaded reads each configured document. Unreadable files are
// logged and skipped; the source fails only when paths were configured
// and none could be read.
func (s *FileSource) FetchUploaded(ctx context.Context, company model.Company) ([]model.EvidenceItem, error) {
	if len(s.paths) == 0 {
		return nil, nil
	}

	items := make([]model.EvidenceItem, 0, len(s.paths))
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		text, err := s.readDocument(path)
		if err != nil {
			s.logger.Warn("skipping unreadable document",
				"company", company.Name,
				"path", path,
				"error", err,
			)
			continue
		}

		items = append(items, model.EvidenceItem{
			Source:    model.SourceUploaded,
			Key:       model.FieldDocuments,
			Payload:   fmt.Sprintf("[%s]\n%s", filepath.Base(path), text),
			FetchedAt: time.Now(),
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, ErrNoDocuments)
	}
	return items, nil
}

// readDocument reads one file up to the size limit.
func (s *FileSource) readDocument(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided document path is intentional
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	data, err := io.ReadAll(io.LimitReader(f, s.maxSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
