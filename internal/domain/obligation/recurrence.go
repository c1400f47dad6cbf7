package obligation

import (
	"database/sql"
	"time"
)

// Frequency is the recurrence policy governing successor generation.
type Frequency string

const (
	FrequencyNone       Frequency = "NONE"
	FrequencyDaily      Frequency = "DAILY"
	FrequencyWeekly     Frequency = "WEEKLY"
	FrequencyBiweekly   Frequency = "BIWEEKLY"
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyBimonthly  Frequency = "BIMONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiannual Frequency = "SEMIANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
)

// ParseFrequency maps a stored string onto a Frequency. Unknown values
// collapse to FrequencyNone: an obligation with a rule we do not recognize
// simply never chains, it is not an error.
func ParseFrequency(s string) Frequency {
	switch Frequency(s) {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyBimonthly, FrequencyQuarterly, FrequencySemiannual, FrequencyAnnual:
		return Frequency(s)
	default:
		return FrequencyNone
	}
}

// NextOccurrence computes the due date following anchor under the given
// frequency. ok is false for FrequencyNone and anything unrecognized.
func NextOccurrence(anchor time.Time, f Frequency) (next time.Time, ok bool) {
	switch f {
	case FrequencyDaily:
		return anchor.AddDate(0, 0, 1), true
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, 7), true
	case FrequencyBiweekly:
		// Billing convention: a "quinzena" is 15 days, not 14.
		return anchor.AddDate(0, 0, 15), true
	case FrequencyMonthly:
		return addMonthsClamped(anchor, 1), true
	case FrequencyBimonthly:
		return addMonthsClamped(anchor, 2), true
	case FrequencyQuarterly:
		return addMonthsClamped(anchor, 3), true
	case FrequencySemiannual:
		return addMonthsClamped(anchor, 6), true
	case FrequencyAnnual:
		return addMonthsClamped(anchor, 12), true
	default:
		return time.Time{}, false
	}
}

// addMonthsClamped adds n months, keeping the due date inside the target
// month. AddDate would normalize the overflow into the following month
// (Jan 31 + 1 month = Mar 2/3); instead the day of month is clamped to the
// last valid day (Jan 31 + 1 month = Feb 28/29). An anchor on the last day
// of its month stays on the last day, so a month-end schedule survives
// passing through February: Feb 29 + 1 month = Mar 31, not Mar 29.
func addMonthsClamped(t time.Time, n int) time.Time {
	anchorLastDay := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	targetLastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	switch {
	case day == anchorLastDay:
		day = targetLastDay
	case day > targetLastDay:
		day = targetLastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// WithinEnd reports whether a computed next due date still falls inside the
// obligation's recurrence window. An absent end date means the recurrence is
// open-ended. inclusive controls the boundary: when true, next == end is
// still accepted.
func WithinEnd(next time.Time, end sql.NullTime, inclusive bool) bool {
	if !end.Valid {
		return true
	}
	if inclusive {
		return !next.After(end.Time)
	}
	return next.Before(end.Time)
}
