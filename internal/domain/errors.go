package domain

import "errors"

var (
	// ErrInvalidArgument signals a malformed request (e.g. empty query).
	ErrInvalidArgument = errors.New("invalid params")
	// ErrAccessDenied signals a failed bearer-token check.
	ErrAccessDenied = errors.New("access denied")
	// ErrSearchFailed signals a search provider failure; the request aborts.
	ErrSearchFailed = errors.New("get search results failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
