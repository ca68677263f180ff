package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
// Embeddings must be deterministic for a fixed (model, text) pair; the
// same model must be used at build time and query time.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	// Model returns the model identifier, recorded in the index at build
	// time and checked at query time.
	Model() string
}

// BatchEmbedder vectorizes multiple texts in a single call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// Generator produces an answer from a fully assembled prompt. Stateless
// per call: conversation context, if any, is folded into the prompt by
// the caller. The response contract is plain text.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelUnloader releases accelerator memory held by a provider's model.
// Safe to call between build and query phases; the ingest service calls
// it after each bulk build.
type ModelUnloader interface {
	Unload(ctx context.Context) error
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate
// token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text. Safety net for providers
// without a native batch endpoint.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}
