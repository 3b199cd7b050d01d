package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest    = "bad_request"
	codeInvalidParams = "invalid_params"
	codeAccessDenied  = "access_denied"
	codeSearchFailed  = "search_failed"
	codeUpstreamError = "upstream_error"
	codeInternalError = "internal_error"
)

// RAGSearcher runs the context-assembly pipeline.
type RAGSearcher interface {
	Search(ctx context.Context, req domain.Request) ([]domain.SearchResult, error)
}

// Server exposes the rag-search pipeline over HTTP.
type Server struct {
	rag    RAGSearcher
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(rag RAGSearcher, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{
		rag:    rag,
		health: health,
		logger: logger,
	}
}

// Routes mounts all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/rag-search", s.RAGSearch)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ragSearchRequest is the wire form of a pipeline request. Pointer fields
// distinguish "absent" from an explicit zero so defaults only fill gaps.
type ragSearchRequest struct {
	Query          string   `json:"query"`
	Locale         string   `json:"locale"`
	SearchN        *int     `json:"search_n"`
	SearchProvider string   `json:"search_provider"`
	IsReranking    bool     `json:"is_reranking"`
	IsDetail       bool     `json:"is_detail"`
	IsFilter       bool     `json:"is_filter"`
	DetailTopK     *int     `json:"detail_top_k"`
	DetailMinScore *float64 `json:"detail_min_score"`
	FilterTopK     *int     `json:"filter_top_k"`
	FilterMinScore *float64 `json:"filter_min_score"`
}

type searchResultItem struct {
	UUID    string  `json:"uuid"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Content string  `json:"content,omitempty"`
}

type ragSearchResponse struct {
	SearchResults []searchResultItem `json:"search_results"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RAGSearch handles POST /api/v1/rag-search.
func (s *Server) RAGSearch(w http.ResponseWriter, r *http.Request) {
	var body ragSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req := requestFromWire(body)

	results, err := s.rag.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i, res := range results {
		items[i] = searchResultItem{
			UUID:    res.UUID,
			Title:   res.Title,
			URL:     res.URL,
			Snippet: res.Snippet,
			Score:   res.Score,
			Content: res.Content,
		}
	}

	writeJSON(w, http.StatusOK, ragSearchResponse{SearchResults: items})
}

// requestFromWire maps the wire request onto domain defaults.
func requestFromWire(body ragSearchRequest) domain.Request {
	req := domain.DefaultRequest()
	req.Query = body.Query
	req.Locale = body.Locale
	req.Reranking = body.IsReranking
	req.Detail = body.IsDetail
	req.Filter = body.IsFilter

	if body.SearchProvider != "" {
		req.Provider = body.SearchProvider
	}
	if body.SearchN != nil {
		req.SearchN = *body.SearchN
	}
	if body.DetailTopK != nil {
		req.DetailTopK = *body.DetailTopK
	}
	if body.DetailMinScore != nil {
		req.DetailMinScore = *body.DetailMinScore
	}
	if body.FilterTopK != nil {
		req.FilterTopK = *body.FilterTopK
	}
	if body.FilterMinScore != nil {
		req.FilterMinScore = *body.FilterMinScore
	}
	return req
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, codeInvalidParams, domain.ErrInvalidArgument.Error())
	case errors.Is(err, domain.ErrSearchFailed):
		writeError(w, http.StatusBadGateway, codeSearchFailed, domain.ErrSearchFailed.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, codeUpstreamError, domain.ErrEmbeddingProviderError.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
