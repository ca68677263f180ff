// Package retrieve embeds a query and finds the most similar chunks
// in the vector index.
package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 6

// Service handles semantic retrieval.
type Service struct {
	embed  Embedder
	index  Searcher
	topK   int
	logger *zap.Logger
}

// New creates a retrieval service. topK <= 0 falls back to DefaultTopK.
func New(embed Embedder, index Searcher, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{embed: embed, index: index, topK: topK, logger: logger}
}

// Retrieve returns up to topK chunks ranked by cosine similarity to
// the query. An empty index yields an empty result, not an error. A
// non-empty index built with a different embedding model is rejected
// so scores are never computed across vector spaces.
func (s *Service) Retrieve(ctx context.Context, query string) ([]domain.RetrievalResult, error) {
	if s.index.Len() > 0 && s.index.Model() != s.embed.Model() {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("index built with model %q, provider uses %q: %w",
			s.index.Model(), s.embed.Model(), domain.ErrModelMismatch)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	results, err := s.index.Search(embResult.Embedding, s.topK)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search index: %w", err)
	}

	if len(results) == 0 {
		metrics.QueriesTotal.WithLabelValues("empty").Inc()
		s.logger.Debug("retrieval returned no results", zap.String("query", query))
		return nil, nil
	}

	metrics.QueriesTotal.WithLabelValues("hit").Inc()
	return results, nil
}
