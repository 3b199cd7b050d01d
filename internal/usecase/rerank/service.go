package rerank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// Service reorders search results by semantic similarity to the query.
// Snippets and the query are embedded in one batch call; results are scored
// by cosine similarity.
type Service struct {
	embedder domain.BatchEmbedder
	logger   *zap.Logger
}

// NewService creates a reranking service.
func NewService(embedder domain.BatchEmbedder, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		logger:   logger,
	}
}

// Rerank returns a new slice sorted by descending similarity to the query.
// Scores are replaced with similarity values in [0, 1]. The input slice is
// not modified.
func (s *Service) Rerank(ctx context.Context, query string, results []domain.SearchResult) ([]domain.SearchResult, error) {
	if len(results) == 0 {
		return results, nil
	}

	texts := make([]string, 0, len(results)+1)
	texts = append(texts, query)
	for _, r := range results {
		texts = append(texts, rankText(r))
	}

	batch, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed for rerank: %w", err)
	}
	if len(batch.Embeddings) != len(texts) {
		return nil, fmt.Errorf("rerank got %d embeddings for %d texts: %w",
			len(batch.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}

	queryVec := batch.Embeddings[0]

	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	for i := range out {
		out[i].Score = clamp01(cosineSimilarity(queryVec, batch.Embeddings[i+1]))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	s.logger.Debug("reranked search results",
		zap.Int("count", len(out)),
		zap.Int("total_tokens", batch.TotalTokens))

	return out, nil
}

// rankText picks the text a result is ranked by. Title plus snippet gives the
// embedder more signal than the snippet alone.
func rankText(r domain.SearchResult) string {
	if r.Title == "" {
		return r.Snippet
	}
	return r.Title + "\n" + r.Snippet
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
