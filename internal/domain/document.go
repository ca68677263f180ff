package domain

// PageUnknown marks documents without page structure (plain text files).
const PageUnknown = -1

// Document is one raw source unit produced by the loader. Paginated
// formats yield one Document per page; plain text yields a single
// Document with Page == PageUnknown.
type Document struct {
	Source string // file path of the originating file
	Page   int    // zero-based page number, PageUnknown if not paginated
	Text   string
}

// Chunk is a bounded slice of a document's text, the unit of indexing
// and retrieval. Immutable once indexed.
type Chunk struct {
	Text   string
	Source string
	Page   int // PageUnknown if the source has no pages
	Seq    int // position of the chunk within its document
}

// RetrievalResult is a chunk with its similarity score for one query.
// Scores are cosine-derived, roughly in [-1, 1], higher is more relevant.
type RetrievalResult struct {
	Chunk Chunk
	Score float64
}

// Evidence is the per-result transparency record returned to callers:
// where the chunk came from, how relevant retrieval thought it was, and
// how much vocabulary it shares with the final answer.
type Evidence struct {
	ID             int     `json:"id"`
	Source         string  `json:"source"`
	Page           string  `json:"page"`
	RetrievalScore float64 `json:"retrieval_score"`
	OverlapScore   float64 `json:"overlap_score"`
}

// Answer is the result of one end-to-end generation call.
type Answer struct {
	Answer   string     `json:"answer"`
	Evidence []Evidence `json:"evidence"`
	Sources  []string   `json:"sources"`
}
