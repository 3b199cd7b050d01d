package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

// maxPageBytes caps how much of a page body is read. Pages beyond this are
// truncated, not rejected.
const maxPageBytes = 4 << 20

var multiNewline = regexp.MustCompile(`\n{2,}`)

// Fetcher downloads web pages and converts them to markdown text.
type Fetcher struct {
	httpClient *http.Client
	converter  *md.Converter
	userAgent  string
	logger     *zap.Logger
}

// Config holds the page fetcher settings.
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxIdleConns int
	Logger       *zap.Logger
}

// NewFetcher creates a page fetcher with a pooled HTTP client.
func NewFetcher(cfg *Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 32
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdle,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		converter:  md.NewConverter("", true, nil),
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
}

// FetchAll downloads all URLs concurrently. The returned map has an entry for
// every input URL; failed fetches map to the empty string. Returns an error
// only when the context is cancelled.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) (map[string]string, error) {
	contents := make(map[string]string, len(urls))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			text, err := f.fetch(ctx, url)
			if err != nil {
				metrics.PageFetchErrorsTotal.Inc()
				f.logger.Warn("page fetch failed",
					zap.String("url", url),
					zap.Error(err))
				text = ""
			} else {
				metrics.PagesFetchedTotal.Inc()
			}

			mu.Lock()
			contents[url] = text
			mu.Unlock()
		}(url)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch cancelled: %w", err)
	}

	return contents, nil
}

// fetch downloads one page and converts its HTML to markdown.
func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("page returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}

	text, err := f.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}

	text = multiNewline.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text), nil
}
