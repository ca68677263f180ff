package answer

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// minOverlap is the floor below which shared vocabulary is treated as
// coincidental and the evidence entry is dropped.
const minOverlap = 0.01

// computeOverlap scores how much vocabulary each chunk shares with the
// generated answer (Jaccard similarity over lowercased word sets).
// Evidence ids refer to 1-based positions in the reranked order, the
// same numbering the prompt used. Entries come back sorted by overlap,
// descending.
func computeOverlap(answer string, results []domain.RetrievalResult) []domain.Evidence {
	answerWords := wordSet(answer)

	var evidence []domain.Evidence
	for i, r := range results {
		chunkWords := wordSet(r.Chunk.Text)
		if len(chunkWords) == 0 {
			continue
		}

		score := jaccard(answerWords, chunkWords)
		if score <= minOverlap {
			continue
		}

		evidence = append(evidence, domain.Evidence{
			ID:             i + 1,
			Source:         sourceName(r.Chunk),
			Page:           pageLabel(r.Chunk),
			RetrievalScore: r.Score,
			OverlapScore:   score,
		})
	}

	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].OverlapScore > evidence[j].OverlapScore
	})
	return evidence
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
