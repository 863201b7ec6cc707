package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

const (
	maxPageSize    = 5 << 20
	excerptRunes   = 280
	defaultWorkers = 4
)

var imageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[name="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// Enricher fills gaps of selected items from the linked page: a lead image
// when the feed carried no media, and a text excerpt when the title is empty.
// Failures leave the item unchanged.
type Enricher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	workers    int
}

func NewEnricher(httpClient *http.Client, userAgent string, timeout time.Duration, workers int) *Enricher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Enricher{
		httpClient: cmp.Or(httpClient, http.DefaultClient),
		userAgent:  userAgent,
		timeout:    cmp.Or(timeout, 15*time.Second),
		workers:    workers,
	}
}

// Enrich returns a copy of items; the input slice is not modified.
func (e *Enricher) Enrich(ctx context.Context, items []Item) []Item {
	enriched := make([]Item, len(items))
	copy(enriched, items)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range enriched {
		item := enriched[i]
		if item.Link == "" || (len(item.MediaURLs) > 0 && item.Title != "") {
			continue
		}

		g.Go(func() error {
			result, err := e.enrichItem(gctx, item)
			if err != nil {
				slog.Warn("Failed to enrich item", "id", item.ID, "url", item.Link, "error", err)
				return nil
			}
			enriched[i] = result
			return nil
		})
	}

	g.Wait()
	return enriched
}

func (e *Enricher) enrichItem(ctx context.Context, item Item) (Item, error) {
	pageURL, err := url.Parse(item.Link)
	if err != nil {
		return item, fmt.Errorf("invalid item link: %w", err)
	}

	data, err := e.fetchPage(ctx, item.Link)
	if err != nil {
		return item, err
	}

	if len(item.MediaURLs) == 0 {
		if image := leadImage(data, pageURL); image != "" {
			item.MediaURLs = []string{image}
		}
	}

	if item.Title == "" {
		item.Title = excerpt(data, pageURL)
	}

	slog.Debug("Item enriched", "id", item.ID, "media", len(item.MediaURLs), "title_length", len(item.Title))
	return item, nil
}

func (e *Enricher) fetchPage(ctx context.Context, link string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func leadImage(data []byte, pageURL *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	for _, selector := range imageSelectors {
		content, ok := doc.Find(selector).First().Attr("content")
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(content))
		if err != nil {
			continue
		}
		return pageURL.ResolveReference(ref).String()
	}

	return ""
}

func excerpt(data []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return ""
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(buf.String()), " ")
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:excerptRunes-1])) + "…"
}
