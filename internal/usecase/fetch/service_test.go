package fetch

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

type mockFetcher struct {
	contents map[string]string
	err      error
	gotURLs  []string
}

func (m *mockFetcher) FetchAll(_ context.Context, urls []string) (map[string]string, error) {
	m.gotURLs = urls
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(urls))
	for _, u := range urls {
		out[u] = m.contents[u]
	}
	return out, nil
}

func results() []domain.SearchResult {
	return []domain.SearchResult{
		{UUID: "a", URL: "https://a.example/", Snippet: "sa", Score: 0.95},
		{UUID: "b", URL: "https://b.example/", Snippet: "sb", Score: 0.85},
		{UUID: "c", URL: "https://c.example/", Snippet: "sc", Score: 0.60},
	}
}

func TestEnrich(t *testing.T) {
	fetcher := &mockFetcher{contents: map[string]string{
		"https://a.example/": "long content for a",
		"https://b.example/": "",
	}}
	svc := NewService(fetcher, zap.NewNop())

	out, err := svc.Enrich(context.Background(), results(), 6, 0.70)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	// c is below the threshold and must not be fetched.
	if len(fetcher.gotURLs) != 2 {
		t.Fatalf("fetched %v", fetcher.gotURLs)
	}

	if out[0].Content != "long content for a" {
		t.Errorf("a.Content = %q", out[0].Content)
	}
	if out[1].Content != "" {
		t.Errorf("failed fetch should leave content empty, got %q", out[1].Content)
	}
	if out[2].Content != "" {
		t.Errorf("below-threshold result enriched: %q", out[2].Content)
	}

	// Order and length preserved.
	if len(out) != 3 || out[0].UUID != "a" || out[2].UUID != "c" {
		t.Errorf("order changed: %+v", out)
	}
}

func TestEnrich_TopKCap(t *testing.T) {
	fetcher := &mockFetcher{contents: map[string]string{}}
	svc := NewService(fetcher, zap.NewNop())

	in := []domain.SearchResult{
		{UUID: "a", URL: "https://a.example/", Score: 0.9},
		{UUID: "b", URL: "https://b.example/", Score: 0.9},
		{UUID: "c", URL: "https://c.example/", Score: 0.9},
	}

	if _, err := svc.Enrich(context.Background(), in, 2, 0.5); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(fetcher.gotURLs) != 2 {
		t.Errorf("fetched %d urls, want 2", len(fetcher.gotURLs))
	}
}

func TestEnrich_NothingSelected(t *testing.T) {
	fetcher := &mockFetcher{}
	svc := NewService(fetcher, zap.NewNop())

	out, err := svc.Enrich(context.Background(), results(), 6, 0.99)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if fetcher.gotURLs != nil {
		t.Errorf("fetcher called with %v", fetcher.gotURLs)
	}
	if len(out) != 3 {
		t.Errorf("got %d results", len(out))
	}
}

func TestEnrich_FetcherError(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("cancelled")}
	svc := NewService(fetcher, zap.NewNop())

	if _, err := svc.Enrich(context.Background(), results(), 6, 0.70); err == nil {
		t.Fatal("expected error")
	}
}
