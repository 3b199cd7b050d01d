package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// Client is a web-search provider backed by the Serper API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *zap.Logger
}

// Config holds the Serper client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a Serper search client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		logger:     cfg.Logger,
	}
}

type searchRequest struct {
	Query  string `json:"q"`
	Num    int    `json:"num,omitempty"`
	Locale string `json:"hl,omitempty"`
}

type searchResponse struct {
	Organic []organicEntry `json:"organic"`
}

type organicEntry struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Search implements the web-search contract. Results keep the provider's
// ranking order; scores are derived from position so earlier hits score higher.
func (c *Client) Search(ctx context.Context, query string, n int, locale string) ([]domain.SearchResult, error) {
	body, err := json.Marshal(searchRequest{Query: query, Num: n, Locale: locale})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(parsed.Organic))
	count := len(parsed.Organic)
	for i, entry := range parsed.Organic {
		position := entry.Position
		if position <= 0 {
			position = i + 1
		}

		r := domain.SearchResult{
			Title:   entry.Title,
			URL:     entry.Link,
			Snippet: entry.Snippet,
			Score:   positionScore(position, count),
		}
		r.EnsureUUID()
		results = append(results, r)
	}

	return results, nil
}

// positionScore maps a 1-based rank onto (0, 1), monotonically decreasing.
func positionScore(position, count int) float64 {
	return 1.0 - float64(position)/float64(count+1)
}
