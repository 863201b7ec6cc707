package schedule

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVStore keeps the schedule in a CSV export of the sheet. Status updates
// rewrite the file atomically.
type CSVStore struct {
	path      string
	hasHeader bool
	mu        sync.Mutex
}

func NewCSVStore(path string, hasHeader bool) *CSVStore {
	return &CSVStore{path: path, hasHeader: hasHeader}
}

func (s *CSVStore) ReadAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := s.readLines()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(lines))
	for i, cells := range lines {
		if i == 0 && s.hasHeader {
			continue
		}
		records = append(records, Record{Index: i + 1, Cells: cells})
	}

	return records, nil
}

func (s *CSVStore) WriteStatus(ctx context.Context, index int, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	lines, err := s.readLines()
	if err != nil {
		return err
	}

	if index < 1 || index > len(lines) || (s.hasHeader && index == 1) {
		return fmt.Errorf("row %d not found in %s", index, s.path)
	}

	cells := lines[index-1]
	for len(cells) < NumColumns {
		cells = append(cells, "")
	}
	cells[ColStatus] = string(status)
	lines[index-1] = cells

	return s.writeLines(lines)
}

func (s *CSVStore) readLines() ([][]string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule: %w", err)
	}
	defer file.Close()

	// Sheet exports frequently start with a UTF-8 byte order mark.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(file, decoder))
	reader.FieldsPerRecord = -1

	var lines [][]string
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read schedule: %w", err)
		}
		lines = append(lines, cells)
	}

	return lines, nil
}

func (s *CSVStore) writeLines(lines [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".schedule-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.WriteAll(lines); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write schedule: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace schedule: %w", err)
	}

	return nil
}
