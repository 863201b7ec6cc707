package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/lysyi3m/rss-courier/app/schedule"
)

// RunSchedule reads the schedule, publishes up to maxCount eligible rows in
// schedule order and marks each published row in the store. A store read
// failure aborts the run with a *FatalError.
func (r *Runner) RunSchedule(ctx context.Context, maxCount uint) (*RunResult, error) {
	result := newResult(ModeSchedule, r.opts.Clock.Now())

	if r.store == nil {
		return nil, r.fatal(result, KindStore, fmt.Errorf("no schedule store configured"))
	}

	records, err := r.readAll(ctx)
	if err != nil {
		return nil, r.fatal(result, KindStore, err)
	}

	rows := make([]schedule.Row, 0, len(records))
	for _, record := range records {
		row, err := schedule.ParseRow(record)
		if errors.Is(err, schedule.ErrBlankRow) {
			continue
		}
		if err != nil {
			r.skip(result, Candidate{Kind: CandidateScheduleRow, Row: record.Index}, Failure{Kind: KindParse, Message: err.Error()})
			continue
		}
		rows = append(rows, row)
	}

	selected := r.SelectEligibleRows(rows, r.opts.Clock.Now(), maxCount)

	slog.Debug("Schedule read", "rows", len(rows), "eligible", len(selected))

	for _, row := range selected {
		candidate := rowCandidate(row)

		if !r.publishAll(ctx, result, candidate, row.Content) {
			slog.Warn("Row left as draft", "row", row.Index, "scheduled", row.Date.String(), "hour", row.Hour)
			continue
		}

		if r.opts.DryRun {
			continue
		}

		if err := r.writeStatus(ctx, row.Index, schedule.StatusPublished); err != nil {
			r.writeBackFailed(result, candidate, err)
		}
	}

	r.finish(result)

	return result, nil
}

// SelectEligibleRows returns at most maxCount eligible rows ordered by
// scheduled date, hour and row index.
func (r *Runner) SelectEligibleRows(rows []schedule.Row, now time.Time, maxCount uint) []schedule.Row {
	eligible := make([]schedule.Row, 0, len(rows))
	for _, row := range rows {
		if r.opts.Eligibility.IsEligible(row, now) {
			eligible = append(eligible, row)
		}
	}

	slices.SortStableFunc(eligible, schedule.Row.Compare)

	if uint(len(eligible)) > maxCount {
		eligible = eligible[:maxCount]
	}

	return eligible
}

func (r *Runner) readAll(ctx context.Context) ([]schedule.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	records, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}

	return records, nil
}

func (r *Runner) writeStatus(ctx context.Context, index int, status schedule.Status) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	if err := r.store.WriteStatus(ctx, index, status); err != nil {
		return fmt.Errorf("failed to mark row %d as %s: %w", index, status, err)
	}

	return nil
}

func rowCandidate(row schedule.Row) Candidate {
	return Candidate{
		Kind:  CandidateScheduleRow,
		Row:   row.Index,
		Title: row.Content.Text,
		Link:  row.Content.Link,
	}
}
