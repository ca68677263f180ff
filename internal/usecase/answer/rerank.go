package answer

import (
	"sort"
	"unicode/utf8"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const maxLengthBonus = 0.1

// rerank adds a small length bonus to each retrieval score and
// reorders by the adjusted score, descending. Longer chunks tend to
// carry more complete explanations, so they get a boost capped at
// maxLengthBonus. Ties keep the retrieval order.
func rerank(results []domain.RetrievalResult) []domain.RetrievalResult {
	reranked := make([]domain.RetrievalResult, len(results))
	for i, r := range results {
		bonus := float64(utf8.RuneCountInString(r.Chunk.Text)) / 10000.0
		if bonus > maxLengthBonus {
			bonus = maxLengthBonus
		}
		r.Score += bonus
		reranked[i] = r
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	return reranked
}
