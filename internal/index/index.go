// Package index implements the persistent vector index: the full set of
// (chunk, embedding) pairs for the current corpus. A rebuild replaces
// the index wholesale; queries are concurrent readers over an immutable
// snapshot, so no query ever observes a mix of old and new data.
package index

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

// Index is the owned vector store. It persists itself to a directory it
// controls and reloads from it on startup.
type Index struct {
	mu      sync.RWMutex
	dir     string
	logger  *zap.Logger
	entries []entry
	dim     int
	model   string
	builtAt time.Time
}

// Open loads the index from dir. A missing or empty directory yields an
// empty, not-ready index rather than an error.
func Open(dir string, logger *zap.Logger) (*Index, error) {
	ix := &Index{dir: dir, logger: logger}

	snap, err := readSnapshot(dir)
	if err != nil {
		return nil, fmt.Errorf("load index from %s: %w", dir, err)
	}
	if snap != nil {
		ix.entries = snap.entries
		ix.dim = snap.dim
		ix.model = snap.model
		ix.builtAt = snap.builtAt
		logger.Info("Loaded vector index",
			zap.String("dir", dir),
			zap.Int("chunks", len(snap.entries)),
			zap.String("model", snap.model),
		)
	}
	return ix, nil
}

// Build atomically replaces the entire index contents. The snapshot is
// written to a scratch directory first and swapped in with a rename, so
// a crash mid-build leaves the previous index intact. model records the
// embedding model identifier the vectors were produced with.
func (ix *Index) Build(model string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	dim := 0
	entries := make([]entry, len(chunks))
	for i := range chunks {
		if i == 0 {
			dim = len(vectors[i])
		} else if len(vectors[i]) != dim {
			return fmt.Errorf("vector %d has %d dimensions, want %d: %w",
				i, len(vectors[i]), dim, domain.ErrVectorDimMismatch)
		}
		entries[i] = entry{chunk: chunks[i], vector: vectors[i]}
	}

	snap := &snapshot{
		entries: entries,
		dim:     dim,
		model:   model,
		builtAt: time.Now().UTC(),
	}
	if err := writeSnapshot(ix.dir, snap); err != nil {
		return fmt.Errorf("persist index: %w: %w", domain.ErrPersistence, err)
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.dim = dim
	ix.model = model
	ix.builtAt = snap.builtAt
	ix.mu.Unlock()

	ix.logger.Info("Vector index rebuilt",
		zap.Int("chunks", len(entries)),
		zap.Int("dimensions", dim),
		zap.String("model", model),
	)
	return nil
}

// Search returns the k entries most similar to the query vector,
// ordered descending by cosine similarity. Ties keep insertion order.
// An empty index returns an empty result set, not an error.
func (ix *Index) Search(vector []float32, k int) ([]domain.RetrievalResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d: %w",
			len(vector), ix.dim, domain.ErrVectorDimMismatch)
	}

	results := make([]domain.RetrievalResult, len(ix.entries))
	for i, e := range ix.entries {
		results[i] = domain.RetrievalResult{
			Chunk: e.chunk,
			Score: cosine(vector, e.vector),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Ready reports whether a non-empty index exists.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries) > 0
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Model returns the embedding model identifier recorded at build time,
// or "" if the index has never been built.
func (ix *Index) Model() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.model
}

// BuiltAt returns the time of the last completed build.
func (ix *Index) BuiltAt() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.builtAt
}
