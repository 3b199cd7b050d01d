package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// SearchProvider is a web-search backend.
type SearchProvider interface {
	Search(ctx context.Context, query string, n int, locale string) ([]domain.SearchResult, error)
}

// Service routes retrieval requests to a named search provider.
type Service struct {
	providers map[string]SearchProvider
	logger    *zap.Logger
}

// NewService creates a retrieval service over the given providers.
func NewService(providers map[string]SearchProvider, logger *zap.Logger) *Service {
	return &Service{
		providers: providers,
		logger:    logger,
	}
}

// Retrieve runs a web search with the named provider. Every returned result
// has a non-empty UUID.
func (s *Service) Retrieve(ctx context.Context, query string, n int, provider, locale string) ([]domain.SearchResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown search provider %q: %w", provider, domain.ErrInvalidArgument)
	}

	results, err := p.Search(ctx, query, n, locale)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", provider, err)
	}

	for i := range results {
		results[i].EnsureUUID()
	}

	s.logger.Debug("retrieved search results",
		zap.String("provider", provider),
		zap.Int("count", len(results)))

	return results, nil
}
