package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/rss-courier/app/publish"
)

// ErrBlankRow marks a record with no content at all. Stores export trailing
// empty rows; callers skip them silently.
var ErrBlankRow = errors.New("blank row")

// ParseError describes a malformed cell of one row.
type ParseError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func ParseRow(record Record) (Row, error) {
	cells := make([]string, NumColumns)
	for i := 0; i < NumColumns && i < len(record.Cells); i++ {
		cells[i] = strings.TrimSpace(record.Cells[i])
	}

	if isBlank(cells) {
		return Row{}, ErrBlankRow
	}

	row := Row{
		Index: record.Index,
		Content: publish.Content{
			Text: cells[ColText],
			Link: cells[ColLink],
		},
	}

	for _, image := range cells[ColImage1 : ColImage4+1] {
		if image != "" {
			row.Content.ImageURLs = append(row.Content.ImageURLs, image)
		}
	}

	if row.Content.Text == "" && row.Content.Link == "" && len(row.Content.ImageURLs) == 0 {
		return Row{}, &ParseError{Index: record.Index, Field: "content", Err: errors.New("text, link and images are all empty")}
	}

	date, err := time.Parse(DateLayout, cells[ColDate])
	if err != nil {
		return Row{}, &ParseError{Index: record.Index, Field: "date", Value: cells[ColDate], Err: err}
	}
	row.Date = DateOf(date)

	hour, err := parseHour(cells[ColHour])
	if err != nil {
		return Row{}, &ParseError{Index: record.Index, Field: "hour", Value: cells[ColHour], Err: err}
	}
	row.Hour = hour

	status, err := ParseStatus(cells[ColStatus])
	if err != nil {
		return Row{}, &ParseError{Index: record.Index, Field: "status", Value: cells[ColStatus], Err: err}
	}
	row.Status = status

	return row, nil
}

// parseHour accepts "9", "09" and the "09:00" form sheets produce when the
// cell is formatted as a time.
func parseHour(s string) (int, error) {
	if h, m, ok := strings.Cut(s, ":"); ok {
		if m != "00" {
			return 0, errors.New("minutes must be 00")
		}
		s = h
	}

	hour, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if hour < 0 || hour > 23 {
		return 0, errors.New("out of range 0-23")
	}
	return hour, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
