package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher retrieves the HTML of a workshop page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ErrFetch wraps every failure to retrieve a page.
var ErrFetch = errors.New("fetch failed")

// HTTPFetcher fetches pages with a plain HTTP GET.
type HTTPFetcher struct {
	client *http.Client
	// MaxSize bounds the number of bytes read from a response. 0 means no limit.
	MaxSize int64
}

// NewHTTPFetcher returns a fetcher with the given per-request timeout.
// If timeout <= 0, DefaultFetchTimeout is used.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		MaxSize: MaxPageSize,
	}
}

// Fetch GETs url and returns the body. Non-200 responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if f.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, f.MaxSize)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	return string(data), nil
}

// fetchDocument fetches url and parses it for querying.
func fetchDocument(ctx context.Context, fetcher PageFetcher, url string) (*goquery.Document, error) {
	html, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
