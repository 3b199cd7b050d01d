package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// PageFetcher downloads pages concurrently. The returned map covers every
// requested URL; failed downloads map to the empty string.
type PageFetcher interface {
	FetchAll(ctx context.Context, urls []string) (map[string]string, error)
}

// Service enriches top-scoring search results with full page content.
type Service struct {
	fetcher PageFetcher
	logger  *zap.Logger
}

// NewService creates a content enrichment service.
func NewService(fetcher PageFetcher, logger *zap.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Enrich fetches page content for up to topK results whose score is at least
// minScore and merges it back. Results whose fetch failed keep an empty
// Content. The returned slice preserves the input order and length.
func (s *Service) Enrich(ctx context.Context, results []domain.SearchResult, topK int, minScore float64) ([]domain.SearchResult, error) {
	urls := selectURLs(results, topK, minScore)
	if len(urls) == 0 {
		return results, nil
	}

	contents, err := s.fetcher.FetchAll(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("fetch pages: %w", err)
	}

	out := make([]domain.SearchResult, len(results))
	copy(out, results)

	enriched := 0
	for i := range out {
		content, ok := contents[out[i].URL]
		if !ok || content == "" {
			continue
		}
		out[i].Content = content
		enriched++
	}

	s.logger.Debug("enriched search results",
		zap.Int("selected", len(urls)),
		zap.Int("enriched", enriched))

	return out, nil
}

// selectURLs picks URLs of results passing the score threshold, capped at topK.
// Results are assumed already ordered by relevance.
func selectURLs(results []domain.SearchResult, topK int, minScore float64) []string {
	var urls []string
	for _, r := range results {
		if len(urls) >= topK {
			break
		}
		if r.Score >= minScore && r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls
}
