package domain

import (
	"fmt"
	"strings"
)

// Pipeline defaults.
const (
	DefaultSearchN        = 10
	DefaultProvider       = "google"
	DefaultDetailTopK     = 6
	DefaultDetailMinScore = 0.70
	DefaultFilterTopK     = 6
	DefaultFilterMinScore = 0.80
)

// Request carries all pipeline parameters for one rag-search call.
type Request struct {
	Query    string
	Locale   string
	Provider string
	SearchN  int

	Reranking bool
	Detail    bool
	Filter    bool

	DetailTopK     int
	DetailMinScore float64
	FilterTopK     int
	FilterMinScore float64
}

// DefaultRequest returns a request with all optional parameters at their
// defaults and all stage flags off.
func DefaultRequest() Request {
	return Request{
		Provider:       DefaultProvider,
		SearchN:        DefaultSearchN,
		DetailTopK:     DefaultDetailTopK,
		DetailMinScore: DefaultDetailMinScore,
		FilterTopK:     DefaultFilterTopK,
		FilterMinScore: DefaultFilterMinScore,
	}
}

// Normalize fills zero-valued count parameters with defaults. Min-score
// thresholds are left alone: zero is a meaningful threshold.
func (r *Request) Normalize() {
	if r.Provider == "" {
		r.Provider = DefaultProvider
	}
	if r.SearchN <= 0 {
		r.SearchN = DefaultSearchN
	}
	if r.DetailTopK <= 0 {
		r.DetailTopK = DefaultDetailTopK
	}
	if r.FilterTopK <= 0 {
		r.FilterTopK = DefaultFilterTopK
	}
}

// Validate rejects requests that must not reach any pipeline stage.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query is required: %w", ErrInvalidArgument)
	}
	return nil
}
