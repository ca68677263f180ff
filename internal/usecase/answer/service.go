// Package answer runs the end-to-end question answering pipeline:
// retrieve, rerank, prompt, generate, score evidence.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// NoEvidenceAnswer is returned verbatim when retrieval finds nothing.
// The model is never called in that case.
const NoEvidenceAnswer = "I could not find any relevant documents to answer your question."

// Service orchestrates the answer pipeline.
type Service struct {
	retriever Retriever
	generator Generator
	logger    *zap.Logger
}

// New creates an answer service.
func New(retriever Retriever, generator Generator, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, generator: generator, logger: logger}
}

// Generate answers a query against the indexed corpus. Empty retrieval
// short-circuits to the fixed no-evidence answer with empty evidence
// and sources. Sources cover every reranked chunk in order; evidence
// covers only chunks whose vocabulary overlaps the answer.
func (s *Service) Generate(ctx context.Context, query string) (domain.Answer, error) {
	results, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	if len(results) == 0 {
		return domain.Answer{
			Answer:   NoEvidenceAnswer,
			Evidence: []domain.Evidence{},
			Sources:  []string{},
		}, nil
	}

	reranked := rerank(results)
	prompt := buildPrompt(query, reranked)

	text, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate: %w", err)
	}

	evidence := computeOverlap(text, reranked)
	if evidence == nil {
		evidence = []domain.Evidence{}
	}

	sources := make([]string, 0, len(reranked))
	for _, r := range reranked {
		sources = append(sources, fmt.Sprintf("%s (p.%s)", sourceName(r.Chunk), pageLabel(r.Chunk)))
	}

	s.logger.Debug("answer generated",
		zap.Int("retrieved", len(results)),
		zap.Int("evidence", len(evidence)),
	)

	return domain.Answer{Answer: text, Evidence: evidence, Sources: sources}, nil
}
