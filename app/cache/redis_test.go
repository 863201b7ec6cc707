package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewCache(context.Background(), "redis://"+mr.Addr(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestGenerateFeedKey(t *testing.T) {
	c := &Cache{}

	key1a := c.GenerateFeedKey("https://example.com/feed.xml")
	key1b := c.GenerateFeedKey("https://example.com/feed.xml")
	key2 := c.GenerateFeedKey("https://different.com/feed.xml")

	assert.Equal(t, key1a, key1b)
	assert.NotEqual(t, key1a, key2)
	assert.Contains(t, key1a, "courier:seen:")
}

func TestCache_MarkAndFilterSeen(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()
	feedURL := "https://example.com/feed.xml"

	seen, err := c.FilterSeen(ctx, feedURL, []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, seen)

	require.NoError(t, c.MarkSeen(ctx, feedURL, "a", time.Now()))

	seen, err = c.FilterSeen(ctx, feedURL, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true}, seen)

	seen, err = c.FilterSeen(ctx, "https://other.example.com/feed", []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, seen, "sets are per feed")

	assert.Equal(t, time.Hour, mr.TTL(c.GenerateFeedKey(feedURL)))

	mr.FastForward(2 * time.Hour)
	seen, err = c.FilterSeen(ctx, feedURL, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, seen, "entries expire after the retention period")
}

func TestCache_Health(t *testing.T) {
	c, mr := setupTestCache(t)

	assert.Equal(t, "healthy", c.Health(context.Background())["status"])

	mr.Close()
	assert.Equal(t, "unhealthy", c.Health(context.Background())["status"])
}

func TestNewCache_Unreachable(t *testing.T) {
	_, err := NewCache(context.Background(), "redis://127.0.0.1:1", time.Hour)
	assert.Error(t, err)
}

func TestNewCache_InvalidURL(t *testing.T) {
	_, err := NewCache(context.Background(), "not a url", time.Hour)
	assert.Error(t, err)
}
