// Package chunker splits documents into overlapping text segments for
// indexing. Consecutive chunks from the same document share exactly
// `overlap` characters, so concatenating each chunk's non-overlapping
// tail in order reconstructs the document text.
package chunker

import "github.com/kailas-cloud/ragdex/internal/domain"

// DefaultChunkSize is the default target chunk size in characters.
const DefaultChunkSize = 600

// DefaultOverlap is the default number of characters shared between
// consecutive chunks.
const DefaultOverlap = 100

// separators, in order of preference, mark natural cut points. The cut
// lands just after the separator.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits document text into overlapping chunks.
type Chunker struct {
	size    int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithSize sets the target chunk size in characters.
func WithSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Split chunks a sequence of documents in order. Documents shorter than
// the target size yield exactly one chunk; an empty input yields an
// empty (nil) chunk sequence.
func (c *Chunker) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.splitDocument(doc)...)
	}
	return chunks
}

func (c *Chunker) splitDocument(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	estimated := n/(c.size-c.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	seq := 0
	for {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.cutPoint(runes, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			Text:   string(runes[start:end]),
			Source: doc.Source,
			Page:   doc.Page,
			Seq:    seq,
		})
		seq++

		if end == n {
			return chunks
		}
		// The next chunk re-reads exactly `overlap` characters so
		// context spanning the cut is present on both sides.
		start = end - c.overlap
	}
}

// cutPoint searches the tail of the window [start, end) for a natural
// boundary and returns the position to cut at. The cut never retreats
// past start+overlap+1, which keeps every chunk longer than the overlap
// and guarantees forward progress.
func (c *Chunker) cutPoint(runes []rune, start, end int) int {
	floor := start + (end-start)*3/4
	if min := start + c.overlap + 1; floor < min {
		floor = min
	}
	if floor >= end {
		return end
	}

	window := string(runes[floor:end])
	for _, sep := range separators {
		if i := lastIndexRunes(window, sep); i >= 0 {
			return floor + i + len([]rune(sep))
		}
	}
	return end
}

// lastIndexRunes returns the rune index of the last occurrence of sep
// in s, or -1.
func lastIndexRunes(s, sep string) int {
	rs := []rune(s)
	rsep := []rune(sep)
	for i := len(rs) - len(rsep); i >= 0; i-- {
		match := true
		for j := range rsep {
			if rs[i+j] != rsep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
