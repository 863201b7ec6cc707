package feed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxFeedSize = 10 << 20

// Fetcher downloads and parses a feed URL.
type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
}

func NewFetcher(httpClient *http.Client, parser *Parser, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: cmp.Or(httpClient, http.DefaultClient),
		parser:     parser,
		userAgent:  userAgent,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return f.parser.Run(data)
}
