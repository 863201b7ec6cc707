package database

import (
	"context"
	"fmt"

	"github.com/lysyi3m/rss-courier/app/schedule"
)

// ScheduleRepository stores the schedule sheet in the schedule_rows table,
// one text column per sheet column.
type ScheduleRepository struct {
	db *DB
}

func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) ReadAll(ctx context.Context) ([]schedule.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT row_index, text, link, image_1, image_2, image_3, image_4, date, hour, status
		FROM schedule_rows
		ORDER BY row_index
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule rows: %w", err)
	}
	defer rows.Close()

	var records []schedule.Record
	for rows.Next() {
		cells := make([]string, schedule.NumColumns)
		record := schedule.Record{Cells: cells}

		err := rows.Scan(&record.Index,
			&cells[schedule.ColText], &cells[schedule.ColLink],
			&cells[schedule.ColImage1], &cells[schedule.ColImage2], &cells[schedule.ColImage3], &cells[schedule.ColImage4],
			&cells[schedule.ColDate], &cells[schedule.ColHour], &cells[schedule.ColStatus])
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}

	return records, nil
}

func (r *ScheduleRepository) WriteStatus(ctx context.Context, index int, status schedule.Status) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE schedule_rows
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE row_index = ?
	`, string(status), index)
	if err != nil {
		return fmt.Errorf("failed to update status of row %d: %w", index, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of row %d: %w", index, err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d not found", index)
	}

	return nil
}

// Import upserts sheet records by row index, e.g. from a CSV export.
func (r *ScheduleRepository) Import(ctx context.Context, records []schedule.Record) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_rows (row_index, text, link, image_1, image_2, image_3, image_4, date, hour, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (row_index) DO UPDATE SET
			text = excluded.text,
			link = excluded.link,
			image_1 = excluded.image_1,
			image_2 = excluded.image_2,
			image_3 = excluded.image_3,
			image_4 = excluded.image_4,
			date = excluded.date,
			hour = excluded.hour,
			status = CASE WHEN schedule_rows.status = 'published' THEN schedule_rows.status ELSE excluded.status END,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		args := make([]any, 0, schedule.NumColumns+1)
		args = append(args, record.Index)
		for i := 0; i < schedule.NumColumns; i++ {
			cell := ""
			if i < len(record.Cells) {
				cell = record.Cells[i]
			}
			if i == schedule.ColStatus && cell == "" {
				cell = string(schedule.StatusDraft)
			}
			args = append(args, cell)
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to import row %d: %w", record.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	return len(records), nil
}
