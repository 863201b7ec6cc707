package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/rss-courier/app/publish"
)

// Column positions of the schedule sheet. Order is significant.
const (
	ColText = iota
	ColLink
	ColImage1
	ColImage2
	ColImage3
	ColImage4
	ColDate
	ColHour
	ColStatus

	NumColumns
)

const DateLayout = "02-01-2006"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StatusDraft):
		return StatusDraft, nil
	case string(StatusPublished):
		return StatusPublished, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Record is one raw sheet row as read from a store. Index is the 1-based
// row position used to address write-backs.
type Record struct {
	Index int
	Cells []string
}

// Date is a calendar day without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return compareInt(d.Year, other.Year)
	case d.Month != other.Month:
		return compareInt(int(d.Month), int(other.Month))
	default:
		return compareInt(d.Day, other.Day)
	}
}

func (d Date) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, d.Month, d.Year)
}

// Row is a parsed schedule entry.
type Row struct {
	Index   int
	Content publish.Content
	Date    Date
	Hour    int
	Status  Status
}

// At returns the start of the scheduled hour in loc.
func (r Row) At(loc *time.Location) time.Time {
	return time.Date(r.Date.Year, r.Date.Month, r.Date.Day, r.Hour, 0, 0, 0, loc)
}

// Compare orders rows by date, hour, then row index.
func (r Row) Compare(other Row) int {
	if c := r.Date.Compare(other.Date); c != 0 {
		return c
	}
	if c := compareInt(r.Hour, other.Hour); c != 0 {
		return c
	}
	return compareInt(r.Index, other.Index)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
