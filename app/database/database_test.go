package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-courier/app/schedule"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(filepath.Join(t.TempDir(), "courier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestScheduleRepository_ImportAndReadAll(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))
	ctx := context.Background()

	count, err := repo.Import(ctx, []schedule.Record{
		{Index: 3, Cells: []string{"Later", "", "", "", "", "", "16-03-2024", "10", "draft"}},
		{Index: 2, Cells: []string{"First", "https://example.com", "https://example.com/1.png", "", "", "", "15-03-2024", "09"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Index)
	assert.Len(t, records[0].Cells, schedule.NumColumns)
	assert.Equal(t, "draft", records[0].Cells[schedule.ColStatus], "missing status imports as draft")

	row, err := schedule.ParseRow(records[0])
	require.NoError(t, err)
	assert.Equal(t, "First", row.Content.Text)
	assert.Equal(t, []string{"https://example.com/1.png"}, row.Content.ImageURLs)
	assert.Equal(t, 9, row.Hour)
}

func TestScheduleRepository_WriteStatusRoundTrip(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Import(ctx, []schedule.Record{
		{Index: 2, Cells: []string{"Post", "", "", "", "", "", "15-03-2024", "09", "draft"}},
	})
	require.NoError(t, err)

	require.NoError(t, repo.WriteStatus(ctx, 2, schedule.StatusPublished))

	records, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	row, err := schedule.ParseRow(records[0])
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusPublished, row.Status)
}

func TestScheduleRepository_ReimportKeepsPublished(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))
	ctx := context.Background()

	records := []schedule.Record{
		{Index: 2, Cells: []string{"Post", "", "", "", "", "", "15-03-2024", "09", "draft"}},
		{Index: 3, Cells: []string{"Other", "", "", "", "", "", "15-03-2024", "10", "draft"}},
	}
	_, err := repo.Import(ctx, records)
	require.NoError(t, err)
	require.NoError(t, repo.WriteStatus(ctx, 2, schedule.StatusPublished))

	records[0].Cells[0] = "Post, edited"
	_, err = repo.Import(ctx, records)
	require.NoError(t, err)

	stored, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.Equal(t, "published", stored[0].Cells[schedule.ColStatus])
	assert.Equal(t, "Post, edited", stored[0].Cells[0], "other columns still update")
	assert.Equal(t, "draft", stored[1].Cells[schedule.ColStatus])
}

func TestScheduleRepository_WriteStatusMissingRow(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))

	err := repo.WriteStatus(context.Background(), 42, schedule.StatusPublished)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 42 not found")
}

func TestSeenRepository(t *testing.T) {
	repo := NewSeenRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	seen, err := repo.FilterSeen(ctx, "https://example.com/feed", []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, seen)

	require.NoError(t, repo.MarkSeen(ctx, "https://example.com/feed", "a", now.Add(-48*time.Hour)))
	require.NoError(t, repo.MarkSeen(ctx, "https://example.com/feed", "b", now))
	require.NoError(t, repo.MarkSeen(ctx, "https://example.com/other", "c", now))
	require.NoError(t, repo.MarkSeen(ctx, "https://example.com/feed", "b", now), "marking twice is allowed")

	seen, err = repo.FilterSeen(ctx, "https://example.com/feed", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)

	removed, err := repo.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	seen, err = repo.FilterSeen(ctx, "https://example.com/feed", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"b": true}, seen)
}

func TestSeenRepository_EmptyIDs(t *testing.T) {
	seen, err := NewSeenRepository(newTestDB(t)).FilterSeen(context.Background(), "u", nil)
	require.NoError(t, err)
	assert.Empty(t, seen)
}
