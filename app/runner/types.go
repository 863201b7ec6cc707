package runner

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeFeedLast   Mode = "feed:last"
	ModeFeedRandom Mode = "feed:random"
	ModeSchedule   Mode = "schedule"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeFeedLast, ModeFeedRandom, ModeSchedule:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

type ErrorKind string

const (
	KindFetch     ErrorKind = "fetch"
	KindStore     ErrorKind = "store"
	KindParse     ErrorKind = "parse"
	KindPublish   ErrorKind = "publish"
	KindTimeout   ErrorKind = "timeout"
	KindWriteBack ErrorKind = "write_back"
)

// FatalError aborts a whole run before any candidate could be evaluated.
type FatalError struct {
	Kind ErrorKind
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Failure describes why one candidate was not published or not recorded.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

const (
	CandidateFeedItem    = "feed_item"
	CandidateScheduleRow = "schedule_row"
)

// Candidate identifies a feed item or schedule row in a report.
type Candidate struct {
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
	Row   int    `json:"row,omitempty"`
	Title string `json:"title,omitempty"`
	Link  string `json:"link,omitempty"`
}

func (c Candidate) String() string {
	if c.Kind == CandidateScheduleRow {
		return "row " + strconv.Itoa(c.Row)
	}
	return c.ID
}

// Outcome is the result of publishing one candidate to one destination.
// Failure is nil on success.
type Outcome struct {
	Candidate     Candidate `json:"candidate"`
	Destination   string    `json:"destination"`
	DestinationID string    `json:"destination_id,omitempty"`
	Failure       *Failure  `json:"failure,omitempty"`
}

func (o Outcome) Succeeded() bool {
	return o.Failure == nil
}

type Issue struct {
	Candidate Candidate `json:"candidate"`
	Failure   Failure   `json:"failure"`
}

type Status string

const (
	StatusOK              Status = "ok"
	StatusPartial         Status = "partial"
	StatusFatal           Status = "fatal"
	StatusWriteBackFailed Status = "write_back_failed"
)

// ExitCode maps a status to the process exit code.
func (s Status) ExitCode() int {
	switch s {
	case StatusOK:
		return 0
	case StatusPartial:
		return 1
	case StatusWriteBackFailed:
		return 3
	}
	return 2
}

// RunResult lists every publish attempt of one run in the order it was made.
// A run with no eligible candidates has an empty Outcomes list and StatusOK.
type RunResult struct {
	ID              uuid.UUID `json:"id"`
	Mode            Mode      `json:"mode"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Outcomes        []Outcome `json:"outcomes"`
	Skipped         []Issue   `json:"skipped,omitempty"`
	WriteBackErrors []Issue   `json:"write_back_errors,omitempty"`
}

func newResult(mode Mode, startedAt time.Time) *RunResult {
	return &RunResult{
		ID:        uuid.New(),
		Mode:      mode,
		StartedAt: startedAt,
		Outcomes:  []Outcome{},
	}
}

// Status reports the worst condition of the run. Skipped candidates do not
// affect it.
func (r *RunResult) Status() Status {
	if len(r.WriteBackErrors) > 0 {
		return StatusWriteBackFailed
	}
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			return StatusPartial
		}
	}
	return StatusOK
}

// Published counts successful outcomes.
func (r *RunResult) Published() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

func (r *RunResult) Failed() int {
	return len(r.Outcomes) - r.Published()
}
