package domain

import "github.com/google/uuid"

// SearchResult is a single scored candidate flowing through the pipeline.
// It is created by the retriever and mutated in place by later stages:
// rerank rewrites Score, enrichment and filtering rewrite Content.
// Score semantics belong to whichever stage wrote it last and are only
// comparable within one request.
type SearchResult struct {
	UUID    string
	Title   string
	URL     string
	Snippet string
	Score   float64
	Content string // empty until enrichment
}

// Enriched reports whether the result carries fetched page content.
// Content must be strictly longer than the snippet, otherwise the fetch
// produced nothing beyond what the provider already returned.
func (r *SearchResult) Enriched() bool {
	return r.Content != "" && len(r.Content) > len(r.Snippet)
}

// EnsureUUID assigns the deterministic URL-derived identity if none is set.
func (r *SearchResult) EnsureUUID() {
	if r.UUID == "" {
		r.UUID = UUIDFromURL(r.URL)
	}
}

// UUIDFromURL derives a stable identifier from a URL. The same URL always
// yields the same UUID, so repeated indexing targets the same document.
func UUIDFromURL(rawURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(rawURL)).String()
}
