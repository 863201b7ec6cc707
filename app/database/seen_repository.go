package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SeenRepository records feed item ids that were already published.
type SeenRepository struct {
	db *DB
}

func NewSeenRepository(db *DB) *SeenRepository {
	return &SeenRepository{db: db}
}

func (r *SeenRepository) FilterSeen(ctx context.Context, feedURL string, ids []string) (map[string]bool, error) {
	seen := make(map[string]bool)
	if len(ids) == 0 {
		return seen, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, feedURL)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id FROM seen_items WHERE feed_url = ? AND item_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan seen item: %w", err)
		}
		seen[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seen items: %w", err)
	}

	return seen, nil
}

func (r *SeenRepository) MarkSeen(ctx context.Context, feedURL, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO seen_items (feed_url, item_id, seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT (feed_url, item_id) DO UPDATE SET seen_at = excluded.seen_at
	`, feedURL, id, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to mark item %s as seen: %w", id, err)
	}

	return nil
}

// Prune deletes entries older than the cutoff and returns how many were removed.
func (r *SeenRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM seen_items WHERE seen_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune seen items: %w", err)
	}

	return result.RowsAffected()
}
