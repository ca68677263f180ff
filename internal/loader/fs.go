// Package loader reads raw documents from the staging directory.
// Plain text is read inline; paginated formats (PDF) are delegated to
// an injected Extractor, since format parsing is an external concern.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Extractor turns one file into raw text plus page metadata. Paginated
// formats yield one Document per page.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]domain.Document, error)
}

// FS loads documents from a directory on disk.
type FS struct {
	dir        string
	extractors map[string]Extractor
	logger     *zap.Logger
}

// Option configures the loader.
type Option func(*FS)

// WithExtractor registers an extractor for a file extension (e.g. ".pdf").
func WithExtractor(ext string, e Extractor) Option {
	return func(l *FS) {
		l.extractors[strings.ToLower(ext)] = e
	}
}

// NewFS creates a filesystem loader rooted at dir.
func NewFS(dir string, logger *zap.Logger, opts ...Option) *FS {
	l := &FS{
		dir:        dir,
		extractors: make(map[string]Extractor),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load walks the staging directory and returns all loadable documents
// in path order. A missing directory is created and yields an empty
// result; unsupported files are skipped, not failed.
func (l *FS) Load(ctx context.Context) ([]domain.Document, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create staging dir %s: %w", l.dir, err)
		}
		return nil, nil
	}

	var docs []domain.Document
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case ext == ".txt":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			docs = append(docs, domain.Document{
				Source: path,
				Page:   domain.PageUnknown,
				Text:   string(data),
			})
		default:
			if e, ok := l.extractors[ext]; ok {
				extracted, err := e.Extract(ctx, path)
				if err != nil {
					return fmt.Errorf("extract %s: %w", path, err)
				}
				docs = append(docs, extracted...)
				return nil
			}
			l.logger.Debug("Skipping unsupported file", zap.String("path", path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.dir, err)
	}

	l.logger.Info("Loaded documents", zap.String("dir", l.dir), zap.Int("count", len(docs)))
	return docs, nil
}
