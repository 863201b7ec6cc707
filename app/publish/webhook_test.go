package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_PublishReturnsID(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "Courier/test", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"post-42"}`))
	}))
	defer server.Close()

	hook := NewWebhook(WebhookOptions{
		Name:      "social",
		URL:       server.URL,
		Headers:   map[string]string{"Authorization": "Bearer secret"},
		UserAgent: "Courier/test",
	}, server.Client())

	id, err := hook.Publish(context.Background(), Content{
		Text:      "Hello",
		Link:      "https://example.com/a",
		ImageURLs: []string{"https://example.com/1.png", "", "https://example.com/2.png", "https://example.com/3.png", "https://example.com/4.png", "https://example.com/5.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "post-42", id)
	assert.Equal(t, "social", got.Destination)
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, "https://example.com/a", got.Link)
	assert.Len(t, got.ImageURLs, MaxImages)
	assert.Equal(t, "https://example.com/2.png", got.ImageURLs[1])
}

func TestWebhook_PublishFallsBackToLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/posts/7")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	id, err := NewWebhook(WebhookOptions{Name: "hook", URL: server.URL}, server.Client()).
		Publish(context.Background(), Content{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "/posts/7", id)
}

func TestWebhook_PublishRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "text too long", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := NewWebhook(WebhookOptions{Name: "hook", URL: server.URL}, server.Client()).
		Publish(context.Background(), Content{Text: "x"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "rejected content")
}

func TestWebhook_PublishHonoursDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewWebhook(WebhookOptions{Name: "hook", URL: server.URL}, server.Client()).
		Publish(ctx, Content{Text: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWebhook_WaitPacesPosts(t *testing.T) {
	hook := NewWebhook(WebhookOptions{Name: "hook", URL: "http://unused", RatePerMinute: 600}, nil)
	var _ Pacer = hook

	start := time.Now()
	require.NoError(t, hook.Wait(context.Background()))
	require.NoError(t, hook.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := hook.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait failed")
}

func TestWebhook_UnlimitedWaitReturnsImmediately(t *testing.T) {
	hook := NewWebhook(WebhookOptions{Name: "hook", URL: "http://unused"}, nil)

	start := time.Now()
	for range 5 {
		require.NoError(t, hook.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLog_Publish(t *testing.T) {
	l := NewLog("console")

	first, err := l.Publish(context.Background(), Content{Text: "a"})
	require.NoError(t, err)
	second, err := l.Publish(context.Background(), Content{Text: "b"})
	require.NoError(t, err)

	assert.Equal(t, "dry-run-console-1", first)
	assert.Equal(t, "dry-run-console-2", second)
}
