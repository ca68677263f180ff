package answer

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const promptTemplate = `Answer the question using the evidence provided below.

Rules:
1. State facts directly without hedging ("The voltage is...")
2. For calculations, clearly show each step
3. If information is missing, state what is missing
4. Do NOT fabricate components or concepts not mentioned
5. Keep answers concise and accurate
6. Use plain text formatting for formulas (V = I*R)

Evidence:
%s

Question: %s

Direct answer:
`

// buildPrompt renders the reranked chunks as numbered evidence blocks
// and wraps them in the answer template.
func buildPrompt(query string, results []domain.RetrievalResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf(
			"[Evidence %d] (Relevance: %.2f)\nSource: %s | Page: %s\n%s",
			i+1, r.Score, sourceName(r.Chunk), pageLabel(r.Chunk), r.Chunk.Text,
		))
	}
	return fmt.Sprintf(promptTemplate, strings.Join(blocks, "\n\n"), query)
}

// sourceName reduces a chunk's source path to its base file name.
func sourceName(c domain.Chunk) string {
	if c.Source == "" {
		return "Unknown"
	}
	return filepath.Base(c.Source)
}

// pageLabel formats a chunk's page for display. Unpaginated sources
// show "?".
func pageLabel(c domain.Chunk) string {
	if c.Page == domain.PageUnknown {
		return "?"
	}
	return strconv.Itoa(c.Page)
}
