package answer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

type mockRetriever struct {
	results []domain.RetrievalResult
	err     error
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string) ([]domain.RetrievalResult, error) {
	return m.results, m.err
}

type mockGenerator struct {
	answer    string
	err       error
	gotPrompt string
	calls     int
}

func (m *mockGenerator) Complete(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.gotPrompt = prompt
	return m.answer, m.err
}

func chunkOf(text, source string, page int) domain.Chunk {
	return domain.Chunk{Text: text, Source: source, Page: page}
}

func TestGenerate_NoResultsShortCircuits(t *testing.T) {
	gen := &mockGenerator{answer: "should not be used"}
	svc := New(&mockRetriever{}, gen, zap.NewNop())

	ans, err := svc.Generate(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ans.Answer != NoEvidenceAnswer {
		t.Errorf("unexpected answer: %q", ans.Answer)
	}
	if ans.Evidence == nil || len(ans.Evidence) != 0 {
		t.Errorf("expected empty evidence slice, got %#v", ans.Evidence)
	}
	if ans.Sources == nil || len(ans.Sources) != 0 {
		t.Errorf("expected empty sources slice, got %#v", ans.Sources)
	}
	if gen.calls != 0 {
		t.Errorf("generator must not be called without evidence")
	}
}

func TestGenerate_FullPipeline(t *testing.T) {
	ret := &mockRetriever{results: []domain.RetrievalResult{
		{Chunk: chunkOf("the voltage across the resistor is five volts", "/docs/circuits.pdf", 2), Score: 0.9},
		{Chunk: chunkOf("unrelated cooking recipe with flour and sugar", "/docs/cookbook.txt", domain.PageUnknown), Score: 0.8},
	}}
	gen := &mockGenerator{answer: "The voltage across the resistor is five volts."}
	svc := New(ret, gen, zap.NewNop())

	ans, err := svc.Generate(context.Background(), "what is the voltage?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if ans.Answer != gen.answer {
		t.Errorf("unexpected answer: %q", ans.Answer)
	}
	if len(ans.Sources) != 2 {
		t.Fatalf("sources must cover all reranked chunks, got %v", ans.Sources)
	}
	if ans.Sources[0] != "circuits.pdf (p.2)" {
		t.Errorf("unexpected source format: %q", ans.Sources[0])
	}
	if ans.Sources[1] != "cookbook.txt (p.?)" {
		t.Errorf("unexpected unpaginated source format: %q", ans.Sources[1])
	}

	// evidence only for chunks sharing vocabulary with the answer
	if len(ans.Evidence) != 1 {
		t.Fatalf("expected 1 evidence entry, got %d: %+v", len(ans.Evidence), ans.Evidence)
	}
	if ans.Evidence[0].ID != 1 || ans.Evidence[0].Source != "circuits.pdf" {
		t.Errorf("unexpected evidence: %+v", ans.Evidence[0])
	}
	if ans.Evidence[0].OverlapScore <= minOverlap {
		t.Errorf("overlap score should exceed threshold: %f", ans.Evidence[0].OverlapScore)
	}
}

func TestGenerate_PromptFormat(t *testing.T) {
	ret := &mockRetriever{results: []domain.RetrievalResult{
		{Chunk: chunkOf("ohm's law relates voltage and current", "/lib/physics.pdf", 0), Score: 0.75},
	}}
	gen := &mockGenerator{answer: "ok"}
	svc := New(ret, gen, zap.NewNop())

	if _, err := svc.Generate(context.Background(), "state ohm's law"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	p := gen.gotPrompt
	if !strings.Contains(p, "[Evidence 1] (Relevance: 0.75)\nSource: physics.pdf | Page: 0\nohm's law relates voltage and current") {
		t.Errorf("evidence block malformed:\n%s", p)
	}
	if !strings.Contains(p, "Question: state ohm's law") {
		t.Errorf("question missing:\n%s", p)
	}
	if !strings.HasSuffix(p, "Direct answer:\n") {
		t.Errorf("prompt must end with the answer cue:\n%q", p[len(p)-30:])
	}
}

func TestGenerate_RetrieverError(t *testing.T) {
	ret := &mockRetriever{err: errors.New("index corrupt")}
	svc := New(ret, &mockGenerator{}, zap.NewNop())

	if _, err := svc.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerate_GeneratorError(t *testing.T) {
	ret := &mockRetriever{results: []domain.RetrievalResult{
		{Chunk: chunkOf("text", "a.txt", domain.PageUnknown), Score: 0.5},
	}}
	gen := &mockGenerator{err: domain.ErrProviderFailure}
	svc := New(ret, gen, zap.NewNop())

	_, err := svc.Generate(context.Background(), "q")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
}

func TestRerank_LengthBonusChangesOrder(t *testing.T) {
	long := strings.Repeat("x", 500)  // bonus 0.05
	short := strings.Repeat("y", 50)  // bonus 0.005

	results := []domain.RetrievalResult{
		{Chunk: chunkOf(short, "short.txt", domain.PageUnknown), Score: 0.82},
		{Chunk: chunkOf(long, "long.txt", domain.PageUnknown), Score: 0.80},
	}

	reranked := rerank(results)
	if reranked[0].Chunk.Source != "long.txt" {
		t.Fatalf("expected long chunk first, got %s", reranked[0].Chunk.Source)
	}
	if got := reranked[0].Score; math.Abs(got-0.85) > 1e-9 {
		t.Errorf("expected adjusted score 0.85, got %f", got)
	}
	if got := reranked[1].Score; math.Abs(got-0.825) > 1e-9 {
		t.Errorf("expected adjusted score 0.825, got %f", got)
	}
}

func TestRerank_BonusCapped(t *testing.T) {
	huge := strings.Repeat("z", 20000)
	results := []domain.RetrievalResult{
		{Chunk: chunkOf(huge, "huge.txt", domain.PageUnknown), Score: 0.5},
	}

	reranked := rerank(results)
	if got := reranked[0].Score; math.Abs(got-0.6) > 1e-9 {
		t.Errorf("expected capped bonus of 0.1, got score %f", got)
	}
}

func TestRerank_StableOnTies(t *testing.T) {
	results := []domain.RetrievalResult{
		{Chunk: chunkOf("aaaa", "first.txt", domain.PageUnknown), Score: 0.7},
		{Chunk: chunkOf("bbbb", "second.txt", domain.PageUnknown), Score: 0.7},
	}

	reranked := rerank(results)
	if reranked[0].Chunk.Source != "first.txt" {
		t.Errorf("tie must keep retrieval order, got %s first", reranked[0].Chunk.Source)
	}
}

func TestComputeOverlap_SortedAndFiltered(t *testing.T) {
	results := []domain.RetrievalResult{
		{Chunk: chunkOf("alpha beta gamma delta", "a.txt", domain.PageUnknown), Score: 0.9},
		{Chunk: chunkOf("alpha beta", "b.txt", domain.PageUnknown), Score: 0.8},
		{Chunk: chunkOf("totally unrelated words here", "c.txt", domain.PageUnknown), Score: 0.7},
	}

	evidence := computeOverlap("alpha beta", results)

	if len(evidence) != 2 {
		t.Fatalf("expected 2 evidence entries, got %d: %+v", len(evidence), evidence)
	}
	// b.txt matches the answer exactly (jaccard 1.0), a.txt partially
	if evidence[0].Source != "b.txt" || evidence[1].Source != "a.txt" {
		t.Errorf("expected overlap-descending order, got %+v", evidence)
	}
	if evidence[0].OverlapScore != 1.0 {
		t.Errorf("expected full overlap 1.0, got %f", evidence[0].OverlapScore)
	}
	// ids keep the reranked numbering
	if evidence[0].ID != 2 || evidence[1].ID != 1 {
		t.Errorf("ids must reference reranked positions, got %+v", evidence)
	}
}

func TestComputeOverlap_SkipsEmptyChunks(t *testing.T) {
	results := []domain.RetrievalResult{
		{Chunk: chunkOf("   ", "blank.txt", domain.PageUnknown), Score: 0.9},
	}

	if ev := computeOverlap("any answer", results); len(ev) != 0 {
		t.Errorf("blank chunk must produce no evidence, got %+v", ev)
	}
}

func TestComputeOverlap_CaseInsensitive(t *testing.T) {
	results := []domain.RetrievalResult{
		{Chunk: chunkOf("VOLTAGE Current", "a.txt", domain.PageUnknown), Score: 0.9},
	}

	ev := computeOverlap("voltage current", results)
	if len(ev) != 1 || ev[0].OverlapScore != 1.0 {
		t.Errorf("expected case-insensitive full overlap, got %+v", ev)
	}
}
