package rerank

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

type mockEmbedder struct {
	embeddings [][]float32
	err        error
	gotTexts   []string
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.gotTexts = texts
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	return domain.BatchEmbeddingResult{Embeddings: m.embeddings}, nil
}

func TestRerank(t *testing.T) {
	// Query vector points along x; second result aligns with it best.
	embedder := &mockEmbedder{embeddings: [][]float32{
		{1, 0, 0},       // query
		{0, 1, 0},       // result A, orthogonal
		{1, 0.1, 0},     // result B, near-parallel
		{0.5, 0.5, 0.5}, // result C, in between
	}}
	svc := NewService(embedder, zap.NewNop())

	in := []domain.SearchResult{
		{UUID: "a", Title: "A", Snippet: "sa", Score: 0.9},
		{UUID: "b", Title: "B", Snippet: "sb", Score: 0.5},
		{UUID: "c", Title: "C", Snippet: "sc", Score: 0.1},
	}

	out, err := svc.Rerank(context.Background(), "query", in)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}

	if len(embedder.gotTexts) != 4 || embedder.gotTexts[0] != "query" {
		t.Errorf("embedded texts = %v", embedder.gotTexts)
	}

	if out[0].UUID != "b" || out[1].UUID != "c" || out[2].UUID != "a" {
		t.Errorf("order = %s, %s, %s; want b, c, a", out[0].UUID, out[1].UUID, out[2].UUID)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
	for _, r := range out {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score %f out of [0,1]", r.Score)
		}
	}

	// Input untouched.
	if in[0].UUID != "a" || in[0].Score != 0.9 {
		t.Errorf("input slice modified: %+v", in[0])
	}
}

func TestRerank_Empty(t *testing.T) {
	embedder := &mockEmbedder{}
	svc := NewService(embedder, zap.NewNop())

	out, err := svc.Rerank(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d results", len(out))
	}
	if embedder.gotTexts != nil {
		t.Error("embedder should not be called for empty input")
	}
}

func TestRerank_EmbedderError(t *testing.T) {
	embedder := &mockEmbedder{err: errors.New("provider down")}
	svc := NewService(embedder, zap.NewNop())

	in := []domain.SearchResult{{UUID: "a", Snippet: "sa"}}
	if _, err := svc.Rerank(context.Background(), "query", in); err == nil {
		t.Fatal("expected error")
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity = %f, want %f", got, tc.want)
			}
		})
	}
}
