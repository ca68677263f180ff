package ingest

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Loader reads raw documents from the corpus directory.
type Loader interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// Chunker splits documents into indexable chunks.
type Chunker interface {
	Split(docs []domain.Document) []domain.Chunk
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Model() string
}

// Indexer replaces the vector index contents atomically.
type Indexer interface {
	Build(model string, chunks []domain.Chunk, vectors [][]float32) error
	Len() int
}
