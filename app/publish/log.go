package publish

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Log only records what would have been published. Used for dry runs.
type Log struct {
	name  string
	count atomic.Int64
}

func NewLog(name string) *Log {
	return &Log{name: name}
}

func (l *Log) Publish(ctx context.Context, content Content) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	n := l.count.Add(1)
	slog.Info("Dry run publish",
		"destination", l.name,
		"text", content.Text,
		"link", content.Link,
		"images", len(content.Images()))

	return fmt.Sprintf("dry-run-%s-%d", l.name, n), nil
}
