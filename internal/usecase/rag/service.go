package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/logger"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

// Retriever runs the mandatory web-search stage.
type Retriever interface {
	Retrieve(ctx context.Context, query string, n int, provider, locale string) ([]domain.SearchResult, error)
}

// Reranker reorders results by semantic similarity to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []domain.SearchResult) ([]domain.SearchResult, error)
}

// Enricher fetches full page content for top results.
type Enricher interface {
	Enrich(ctx context.Context, results []domain.SearchResult, topK int, minScore float64) ([]domain.SearchResult, error)
}

// Filterer narrows enriched content to query-relevant passages.
type Filterer interface {
	Filter(ctx context.Context, query string, results []domain.SearchResult, topK int, minScore float64) ([]domain.SearchResult, error)
}

// Service orchestrates the context-assembly pipeline: search, then optional
// rerank, enrichment and filter stages. Optional stages degrade gracefully:
// a failure keeps the results from the previous stage instead of failing the
// request.
type Service struct {
	retriever Retriever
	reranker  Reranker
	enricher  Enricher
	filterer  Filterer
}

// NewService creates the pipeline orchestrator.
func NewService(retriever Retriever, reranker Reranker, enricher Enricher, filterer Filterer) *Service {
	return &Service{
		retriever: retriever,
		reranker:  reranker,
		enricher:  enricher,
		filterer:  filterer,
	}
}

// Search runs the pipeline for one request.
func (s *Service) Search(ctx context.Context, req domain.Request) ([]domain.SearchResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)

	start := time.Now()
	results, err := s.retriever.Retrieve(ctx, req.Query, req.SearchN, req.Provider, req.Locale)
	metrics.StageDuration.WithLabelValues("retrieve").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}
	if len(results) == 0 {
		return []domain.SearchResult{}, nil
	}

	if req.Reranking {
		results = s.optional(ctx, log, "rerank", results, func(ctx context.Context) ([]domain.SearchResult, error) {
			return s.reranker.Rerank(ctx, req.Query, results)
		})
	}

	if req.Detail {
		results = s.optional(ctx, log, "enrich", results, func(ctx context.Context) ([]domain.SearchResult, error) {
			return s.enricher.Enrich(ctx, results, req.DetailTopK, req.DetailMinScore)
		})
	}

	if req.Filter {
		results = s.optional(ctx, log, "filter", results, func(ctx context.Context) ([]domain.SearchResult, error) {
			return s.filterer.Filter(ctx, req.Query, results, req.FilterTopK, req.FilterMinScore)
		})
	}

	return results, nil
}

// optional runs one pipeline stage, keeping the previous results when the
// stage fails.
func (s *Service) optional(
	ctx context.Context, log *zap.Logger, stage string,
	prev []domain.SearchResult,
	run func(ctx context.Context) ([]domain.SearchResult, error),
) []domain.SearchResult {
	start := time.Now()
	next, err := run(ctx)
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.StageDegradedTotal.WithLabelValues(stage).Inc()
		log.Warn("pipeline stage degraded",
			zap.String("stage", stage),
			zap.Error(err))
		return prev
	}
	return next
}
