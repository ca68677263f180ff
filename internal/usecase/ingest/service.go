// Package ingest rebuilds the vector index from the corpus directory:
// load, chunk, embed, swap.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Stats summarizes one rebuild run.
type Stats struct {
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Tokens    int           `json:"tokens"`
	Duration  time.Duration `json:"-"`
}

// Service handles corpus ingestion.
type Service struct {
	loader   Loader
	chunker  Chunker
	embed    Embedder
	index    Indexer
	unloader domain.ModelUnloader // nil when unloading is disabled
	logger   *zap.Logger
}

// New creates an ingestion service. unloader may be nil.
func New(
	loader Loader,
	chunker Chunker,
	embed Embedder,
	index Indexer,
	unloader domain.ModelUnloader,
	logger *zap.Logger,
) *Service {
	return &Service{
		loader:   loader,
		chunker:  chunker,
		embed:    embed,
		index:    index,
		unloader: unloader,
		logger:   logger,
	}
}

// Rebuild replaces the index with a fresh build of the corpus. An
// empty corpus still produces a valid empty index; the returned error
// is domain.ErrIngestionEmpty so callers can report it distinctly.
// Queries against the previous index keep working until the swap.
func (s *Service) Rebuild(ctx context.Context) (Stats, error) {
	start := time.Now()

	docs, err := s.loader.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load documents: %w", err)
	}

	chunks := s.chunker.Split(docs)

	if len(chunks) == 0 {
		if err := s.index.Build(s.embed.Model(), nil, nil); err != nil {
			return Stats{}, fmt.Errorf("build empty index: %w", err)
		}
		metrics.IndexChunks.Set(0)
		s.logger.Warn("ingestion found no content", zap.Int("documents", len(docs)))
		return Stats{Documents: len(docs), Duration: time.Since(start)},
			domain.ErrIngestionEmpty
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embResult, err := s.batchEmbed(ctx, texts)
	if err != nil {
		return Stats{}, fmt.Errorf("embed chunks: %w", err)
	}

	if err := s.index.Build(s.embed.Model(), chunks, embResult.Embeddings); err != nil {
		return Stats{}, fmt.Errorf("build index: %w", err)
	}
	metrics.IndexChunks.Set(float64(len(chunks)))

	s.unloadModels(ctx)

	stats := Stats{
		Documents: len(docs),
		Chunks:    len(chunks),
		Tokens:    embResult.TotalTokens,
		Duration:  time.Since(start),
	}

	s.logger.Info("index rebuilt",
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.Chunks),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embed, texts)
}

// unloadModels frees provider memory after a build. Failures are
// logged, not returned: the index is already swapped and usable.
func (s *Service) unloadModels(ctx context.Context) {
	if s.unloader == nil {
		return
	}
	if err := s.unloader.Unload(ctx); err != nil {
		s.logger.Warn("failed to unload models after rebuild", zap.Error(err))
	}
}

// Unload releases provider-held model memory on demand.
func (s *Service) Unload(ctx context.Context) error {
	if s.unloader == nil {
		return nil
	}
	return s.unloader.Unload(ctx)
}
