package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articlePage(head string) string {
	paragraph := "<p>The harbour lights were switched on at dusk while the ferry crews finished the evening crossing. " +
		"Residents gathered on the quay to watch the boats return, and the market stalls stayed open late into the night.</p>"
	return "<html><head><title>Harbour</title>" + head + "</head><body><article><h1>Harbour news</h1>" +
		strings.Repeat(paragraph, 8) + "</article></body></html>"
}

func TestEnricher_AddsLeadImageAndExcerpt(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/with-og", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage(`<meta property="og:image" content="/img/cover.png">`)))
	})
	mux.HandleFunc("/twitter", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage(`<meta name="twitter:image" content="https://cdn.example.com/t.jpg">`)))
	})
	mux.HandleFunc("/complete", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	items := []Item{
		{ID: "1", Title: "Has title", Link: server.URL + "/with-og"},
		{ID: "2", Title: "", Link: server.URL + "/twitter"},
		{ID: "3", Title: "Complete", Link: server.URL + "/complete", MediaURLs: []string{"https://example.com/m.png"}},
	}

	enriched := NewEnricher(server.Client(), "Courier/test", time.Second, 2).Enrich(context.Background(), items)

	require.Len(t, enriched, 3)
	assert.Equal(t, []string{server.URL + "/img/cover.png"}, enriched[0].MediaURLs)
	assert.Equal(t, "Has title", enriched[0].Title)

	assert.Equal(t, []string{"https://cdn.example.com/t.jpg"}, enriched[1].MediaURLs)
	assert.Contains(t, enriched[1].Title, "harbour lights")
	assert.LessOrEqual(t, len([]rune(enriched[1].Title)), excerptRunes)

	assert.Equal(t, items[2], enriched[2], "complete items are not fetched")
	assert.Equal(t, int32(2), hits.Load())

	assert.Empty(t, items[0].MediaURLs, "input is not modified")
}

func TestEnricher_FailureKeepsItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	items := []Item{{ID: "1", Title: "T", Link: server.URL}}
	enriched := NewEnricher(server.Client(), "", time.Second, 0).Enrich(context.Background(), items)

	assert.Equal(t, items, enriched)
}
