package schedule

import (
	"time"
)

// Eligibility decides whether a row fires in the current run.
//
// The default is an exact match on the scheduled calendar hour, which fits an
// hourly invocation: a row whose hour passed without a run stays draft. With
// CatchUp set, any draft row scheduled at or before now fires, and the
// published status is the only thing preventing a second post.
type Eligibility struct {
	CatchUp  bool
	Location *time.Location
}

func (e Eligibility) IsEligible(row Row, now time.Time) bool {
	if row.Status != StatusDraft {
		return false
	}

	if e.Location != nil {
		now = now.In(e.Location)
	}

	if e.CatchUp {
		return !row.At(now.Location()).After(now)
	}

	return row.Date == DateOf(now) && row.Hour == now.Hour()
}

// IsEligible applies the exact-hour rule in now's own location.
func IsEligible(row Row, now time.Time) bool {
	return Eligibility{}.IsEligible(row, now)
}
