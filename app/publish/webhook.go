package publish

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type WebhookOptions struct {
	Name          string
	URL           string
	Headers       map[string]string
	RatePerMinute int
	UserAgent     string
}

// Webhook posts Content as JSON to an HTTP endpoint. Callers pace posts with
// Wait, which holds a per-destination limiter.
type Webhook struct {
	name       string
	url        string
	headers    map[string]string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type webhookPayload struct {
	Destination string   `json:"destination"`
	Text        string   `json:"text"`
	Link        string   `json:"link,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

type webhookResponse struct {
	ID string `json:"id"`
}

// StatusError is returned when the destination answers with a non-2xx code.
type StatusError struct {
	Destination string
	StatusCode  int
	Body        string
}

func (e *StatusError) Error() string {
	if e.StatusCode >= 500 {
		return fmt.Sprintf("destination %s unavailable: HTTP %d %s", e.Destination, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("destination %s rejected content: HTTP %d %s", e.Destination, e.StatusCode, e.Body)
}

func NewWebhook(opts WebhookOptions, httpClient *http.Client) *Webhook {
	limit := rate.Inf
	if opts.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RatePerMinute))
	}

	return &Webhook{
		name:       opts.Name,
		url:        opts.URL,
		headers:    opts.Headers,
		userAgent:  opts.UserAgent,
		httpClient: cmp.Or(httpClient, http.DefaultClient),
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the limiter grants the next post. Slow rates can need
// longer than a single publish timeout, so ctx should be the run context.
func (w *Webhook) Wait(ctx context.Context) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}
	return nil
}

func (w *Webhook) Publish(ctx context.Context, content Content) (string, error) {
	body, err := json.Marshal(webhookPayload{
		Destination: w.name,
		Text:        content.Text,
		Link:        content.Link,
		ImageURLs:   content.Images(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach destination %s: %w", w.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Destination: w.name, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	var decoded webhookResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &decoded); err != nil {
			slog.Debug("Webhook response is not JSON", "destination", w.name, "error", err)
		}
	}

	return cmp.Or(decoded.ID, resp.Header.Get("Location")), nil
}
