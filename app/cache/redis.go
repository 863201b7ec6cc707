package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRetention = 90 * 24 * time.Hour

// Cache keeps the ids of already published feed items in Redis sets, one
// set per feed URL. Each set expires Retention after its last write.
type Cache struct {
	client    *redis.Client
	retention time.Duration
}

// NewCache connects to the Redis server at redisURL (redis://host:port/db).
func NewCache(ctx context.Context, redisURL string, retention time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if retention <= 0 {
		retention = DefaultRetention
	}

	slog.Debug("Connected to Redis", "addr", opts.Addr)

	return &Cache{client: client, retention: retention}, nil
}

// GenerateFeedKey generates a consistent key for a feed URL
func (c *Cache) GenerateFeedKey(feedURL string) string {
	hash := sha256.Sum256([]byte(feedURL))
	return fmt.Sprintf("courier:seen:%x", hash[:8])
}

func (c *Cache) FilterSeen(ctx context.Context, feedURL string, ids []string) (map[string]bool, error) {
	seen := make(map[string]bool)
	if len(ids) == 0 {
		return seen, nil
	}

	key := c.GenerateFeedKey(feedURL)
	cmds := make([]*redis.BoolCmd, len(ids))

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.SIsMember(ctx, key, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check seen items: %w", err)
	}

	for i, cmd := range cmds {
		if cmd.Val() {
			seen[ids[i]] = true
		}
	}

	return seen, nil
}

func (c *Cache) MarkSeen(ctx context.Context, feedURL, id string, at time.Time) error {
	key := c.GenerateFeedKey(feedURL)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, id)
		pipe.Expire(ctx, key, c.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark item %s as seen: %w", id, err)
	}

	return nil
}

// Health reports whether Redis answers a ping.
func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}
