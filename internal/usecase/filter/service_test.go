package filter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

type mockRepo struct {
	matches  []domain.Match
	queryErr error
	upserts  []upsertCall
}

type upsertCall struct {
	doc    domain.Document
	chunks []domain.Chunk
}

func (m *mockRepo) Upsert(_ context.Context, doc domain.Document, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("count mismatch")
	}
	m.upserts = append(m.upserts, upsertCall{doc: doc, chunks: chunks})
	return nil
}

func (m *mockRepo) Query(_ context.Context, _ []float32, _ int) ([]domain.Match, error) {
	return m.matches, m.queryErr
}

type mockEmbedder struct {
	err        error
	calls      int
	embedCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.embedCalls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = []float32{1, 0, 0}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

func newService(repo *mockRepo, embedder *mockEmbedder) *Service {
	return NewService(repo, embedder, NewChunker(1024, 20), zap.NewNop())
}

func enrichedResult(uuid, content string) domain.SearchResult {
	return domain.SearchResult{
		UUID:    uuid,
		URL:     "https://" + uuid + ".example/",
		Snippet: "s",
		Content: content,
	}
}

func TestFilter(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{
		{UUID: "a", Text: "best passage", Score: 0.95},
		{UUID: "a", Text: "second passage", Score: 0.90},
		{UUID: "b", Text: "weak passage", Score: 0.50},
	}}
	embedder := &mockEmbedder{}
	svc := newService(repo, embedder)

	in := []domain.SearchResult{
		enrichedResult("a", "full content of document a"),
		enrichedResult("b", "full content of document b"),
		{UUID: "c", URL: "https://c.example/", Snippet: "only snippet"},
	}

	out, err := svc.Filter(context.Background(), "query", in, 6, 0.80)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}

	// Only the two enriched documents get indexed.
	if len(repo.upserts) != 2 {
		t.Fatalf("indexed %d docs, want 2", len(repo.upserts))
	}

	if out[0].Content != "best passage\nsecond passage" {
		t.Errorf("a.Content = %q", out[0].Content)
	}
	// b's only match is below min_score; content stays untouched.
	if out[1].Content != "full content of document b" {
		t.Errorf("b.Content = %q", out[1].Content)
	}
	// Nothing is dropped from the list.
	if len(out) != 3 || out[2].UUID != "c" {
		t.Errorf("list membership changed: %+v", out)
	}

	// Input untouched.
	if in[0].Content != "full content of document a" {
		t.Errorf("input modified: %q", in[0].Content)
	}

	// One Embed call for the query, one batch per indexed document.
	if embedder.embedCalls != 1 {
		t.Errorf("query embedded %d times, want 1", embedder.embedCalls)
	}
	if embedder.calls != 2 {
		t.Errorf("batch embed called %d times, want 2", embedder.calls)
	}
}

func TestFilter_DoesNotWriteUUIDIntoInput(t *testing.T) {
	repo := &mockRepo{}
	embedder := &mockEmbedder{}
	svc := newService(repo, embedder)

	in := []domain.SearchResult{{
		URL:     "https://a.example/",
		Snippet: "s",
		Content: "full content of document a",
	}}

	out, err := svc.Filter(context.Background(), "query", in, 6, 0.80)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}

	if in[0].UUID != "" {
		t.Errorf("input slice gained uuid %q", in[0].UUID)
	}
	if out[0].UUID == "" {
		t.Error("output missing assigned uuid")
	}
}

func TestFilter_NoEnrichedResults(t *testing.T) {
	repo := &mockRepo{}
	embedder := &mockEmbedder{}
	svc := newService(repo, embedder)

	in := []domain.SearchResult{
		{UUID: "a", Snippet: "snippet only"},
	}

	out, err := svc.Filter(context.Background(), "query", in, 6, 0.80)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times, want 0", embedder.calls)
	}
	if len(out) != 1 || out[0].UUID != "a" {
		t.Errorf("out = %+v", out)
	}
}

func TestFilter_EmbedderError(t *testing.T) {
	repo := &mockRepo{}
	embedder := &mockEmbedder{err: errors.New("provider down")}
	svc := newService(repo, embedder)

	in := []domain.SearchResult{enrichedResult("a", "full content")}
	if _, err := svc.Filter(context.Background(), "query", in, 6, 0.80); err == nil {
		t.Fatal("expected error")
	}
}

func TestFilter_QueryError(t *testing.T) {
	repo := &mockRepo{queryErr: errors.New("index missing")}
	embedder := &mockEmbedder{}
	svc := newService(repo, embedder)

	in := []domain.SearchResult{enrichedResult("a", "full content")}
	if _, err := svc.Filter(context.Background(), "query", in, 6, 0.80); err == nil {
		t.Fatal("expected error")
	}
}

func TestChunker_Split(t *testing.T) {
	chunker := NewChunker(100, 10)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("some sentence about vector search. ")
	}
	doc := domain.Document{UUID: "doc-1", Text: b.String()}

	chunks, err := chunker.Split(doc)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several for long text", len(chunks))
	}
	for i, c := range chunks {
		if c.UUID != "doc-1" {
			t.Errorf("chunk %d uuid = %q", i, c.UUID)
		}
		if len(c.Text) > 100 {
			t.Errorf("chunk %d exceeds size: %d", i, len(c.Text))
		}
	}
	if chunks[0].Seq != 0 {
		t.Errorf("first seq = %d", chunks[0].Seq)
	}
}

func TestChunker_ShortText(t *testing.T) {
	chunker := NewChunker(1024, 20)
	doc := domain.Document{UUID: "doc-1", Text: "short text"}

	chunks, err := chunker.Split(doc)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "short text" {
		t.Errorf("chunks = %+v", chunks)
	}
}
