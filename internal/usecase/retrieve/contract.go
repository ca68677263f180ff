package retrieve

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Model() string
}

// Searcher is the vector index contract for retrieval.
type Searcher interface {
	Search(vector []float32, k int) ([]domain.RetrievalResult, error)
	Model() string
	Len() int
}
