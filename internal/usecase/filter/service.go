package filter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// ChunkRepository persists document chunks and answers KNN queries.
type ChunkRepository interface {
	Upsert(ctx context.Context, doc domain.Document, chunks []domain.Chunk, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)
}

// Embedder vectorizes chunk batches and single queries.
type Embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// Service narrows enriched content down to the passages closest to the query.
// Enriched documents are chunked, embedded and indexed; a KNN query then
// selects the most relevant chunks and each document's content is replaced by
// its matching passages.
type Service struct {
	repo     ChunkRepository
	embedder Embedder
	chunker  *Chunker
	logger   *zap.Logger
}

// NewService creates a semantic filter service.
func NewService(repo ChunkRepository, embedder Embedder, chunker *Chunker, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		chunker:  chunker,
		logger:   logger,
	}
}

// Filter indexes enriched results and replaces their content with the chunks
// most similar to the query. Results never get dropped: entries without a
// matching chunk keep their content as is. The input slice is not modified.
func (s *Service) Filter(ctx context.Context, query string, results []domain.SearchResult, topK int, minScore float64) ([]domain.SearchResult, error) {
	out := make([]domain.SearchResult, len(results))
	copy(out, results)

	indexed := 0
	for i := range out {
		if !out[i].Enriched() {
			continue
		}
		if err := s.indexDocument(ctx, &out[i]); err != nil {
			return nil, err
		}
		indexed++
	}

	if indexed == 0 {
		return out, nil
	}

	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.repo.Query(ctx, queryEmb.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	// Merge matching chunk texts per document, keeping similarity order.
	merged := make(map[string]string)
	kept := 0
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		if prev, ok := merged[m.UUID]; ok {
			merged[m.UUID] = prev + "\n" + m.Text
		} else {
			merged[m.UUID] = m.Text
		}
		kept++
	}

	for i := range out {
		if text, ok := merged[out[i].UUID]; ok {
			out[i].Content = text
		}
	}

	s.logger.Debug("filtered search results",
		zap.Int("indexed_docs", indexed),
		zap.Int("matches", len(matches)),
		zap.Int("kept", kept))

	return out, nil
}

// indexDocument chunks, embeds and stores one enriched result.
func (s *Service) indexDocument(ctx context.Context, r *domain.SearchResult) error {
	doc := domain.NewDocument(r)

	chunks, err := s.chunker.Split(doc)
	if err != nil {
		return fmt.Errorf("chunk document %s: %w", doc.UUID, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	batch, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks %s: %w", doc.UUID, err)
	}
	if len(batch.Embeddings) != len(chunks) {
		return fmt.Errorf("got %d embeddings for %d chunks: %w",
			len(batch.Embeddings), len(chunks), domain.ErrEmbeddingProviderError)
	}

	if err := s.repo.Upsert(ctx, doc, chunks, batch.Embeddings); err != nil {
		return fmt.Errorf("store chunks %s: %w", doc.UUID, err)
	}
	return nil
}
