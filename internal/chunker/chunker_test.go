package chunker

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// reconstruct concatenates the non-overlapping spans of a document's
// chunks in order.
func reconstruct(chunks []domain.Chunk, overlap int) string {
	var b strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		if i == 0 {
			b.WriteString(ch.Text)
			continue
		}
		b.WriteString(string(runes[overlap:]))
	}
	return b.String()
}

func repeatedText(paragraphs int) string {
	var b strings.Builder
	for i := 0; i < paragraphs; i++ {
		b.WriteString("The voltage divider splits the input across two resistors. ")
		b.WriteString("Ohm's law gives V = I*R for each branch of the circuit.\n\n")
	}
	return b.String()
}

func TestSplit_Reconstruction(t *testing.T) {
	texts := []string{
		repeatedText(20),
		strings.Repeat("x", 5000),
		"short document",
		"no trailing newline but a few sentences. Another one here. And a third.",
		strings.Repeat("résumé naïve Führer — ünïcödé ", 200),
	}

	c := New(WithSize(600), WithOverlap(100))
	for i, text := range texts {
		chunks := c.Split([]domain.Document{{Source: "doc.txt", Page: domain.PageUnknown, Text: text}})
		if got := reconstruct(chunks, 100); got != text {
			t.Errorf("text %d: reconstruction mismatch (got %d chars, want %d)", i, len(got), len(text))
		}
	}
}

func TestSplit_ExactOverlap(t *testing.T) {
	c := New(WithSize(200), WithOverlap(40))
	chunks := c.Split([]domain.Document{{Source: "a.txt", Text: repeatedText(10)}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		tail := string(prev[len(prev)-40:])
		head := string(cur[:40])
		if tail != head {
			t.Fatalf("chunk %d: overlap mismatch\ntail: %q\nhead: %q", i, tail, head)
		}
	}
}

func TestSplit_ShortDocumentSingleChunk(t *testing.T) {
	c := New()
	doc := domain.Document{Source: "tiny.txt", Page: domain.PageUnknown, Text: "fits in one chunk"}

	chunks := c.Split([]domain.Document{doc})
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0].Text != doc.Text {
		t.Errorf("chunk text: got %q, want %q", chunks[0].Text, doc.Text)
	}
	if chunks[0].Seq != 0 {
		t.Errorf("chunk seq: got %d, want 0", chunks[0].Seq)
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	c := New()
	if chunks := c.Split(nil); len(chunks) != 0 {
		t.Errorf("nil input: expected no chunks, got %d", len(chunks))
	}
	if chunks := c.Split([]domain.Document{{Source: "empty.txt"}}); len(chunks) != 0 {
		t.Errorf("empty document: expected no chunks, got %d", len(chunks))
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	// A paragraph break sits inside the last quarter of the first window;
	// the first chunk should end right after it, not at the hard limit.
	text := strings.Repeat("a", 550) + "\n\n" + strings.Repeat("b", 600)
	c := New(WithSize(600), WithOverlap(100))

	chunks := c.Split([]domain.Document{{Source: "p.txt", Text: text}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "\n\n") {
		t.Errorf("first chunk should cut after the paragraph break, got suffix %q",
			chunks[0].Text[len(chunks[0].Text)-5:])
	}
	if got := reconstruct(chunks, 100); got != text {
		t.Error("boundary-adjusted chunks no longer reconstruct the document")
	}
}

func TestSplit_CarriesMetadata(t *testing.T) {
	c := New(WithSize(100), WithOverlap(20))
	docs := []domain.Document{
		{Source: "manual.pdf", Page: 3, Text: strings.Repeat("w ", 200)},
		{Source: "notes.txt", Page: domain.PageUnknown, Text: "plain"},
	}

	chunks := c.Split(docs)
	if len(chunks) < 3 {
		t.Fatalf("expected chunks from both documents, got %d", len(chunks))
	}

	last := chunks[len(chunks)-1]
	if last.Source != "notes.txt" || last.Page != domain.PageUnknown {
		t.Errorf("metadata not carried: %+v", last)
	}
	for i, ch := range chunks[:len(chunks)-1] {
		if ch.Source != "manual.pdf" || ch.Page != 3 {
			t.Errorf("chunk %d metadata: %+v", i, ch)
		}
		if ch.Seq != i {
			t.Errorf("chunk %d seq: got %d", i, ch.Seq)
		}
	}
}

func TestNew_OverlapClampedBelowSize(t *testing.T) {
	c := New(WithSize(100), WithOverlap(100))
	if c.overlap >= c.size {
		t.Errorf("overlap %d not clamped below size %d", c.overlap, c.size)
	}
}
