package answer

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Retriever finds chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.RetrievalResult, error)
}

// Generator produces a completion for a prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
