package temporal

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Interval is a half-open time range [Start, End). Half-open boundaries
// avoid double-counting the boundary instant when adjacent periods are
// queried back to back. Start < End always holds for resolver output.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains reports whether t falls inside [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// TruncateEnd clamps the interval end to at. This is the explicit
// "period to date" conjunction: resolving {Month, 0} yields the full
// containing month, and callers wanting month-to-date intersect with
// the reference instant themselves.
func (iv Interval) TruncateEnd(at time.Time) (Interval, error) {
	if !at.After(iv.Start) {
		return Interval{}, errors.Wrapf(ErrInvalidRange, "truncation instant %s is at or before interval start %s", at, iv.Start)
	}
	if at.Before(iv.End) {
		iv.End = at
	}
	return iv, nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// FilterKind discriminates recurring filter descriptors.
type FilterKind int

const (
	FilterWeekday FilterKind = iota
	FilterHourOfDay
)

// Filter is a recurring per-row predicate descriptor. Unlike an Interval
// it has no fixed start or end; downstream rendering applies it as a
// weekday-set membership or hour-of-day range test per row. The weekday
// and hour are local to Location, the convention timezone captured at
// resolution time, so renderers must convert stored instants before
// extracting.
type Filter struct {
	Kind FilterKind `json:"kind"`

	// Location is the IANA timezone the filter's weekdays and hours
	// are expressed in.
	Location string `json:"location"`

	// Weekdays is the sorted, deduplicated membership set for
	// FilterWeekday.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`

	// StartHour and EndHour bound the half-open [StartHour, EndHour)
	// range for FilterHourOfDay.
	StartHour int `json:"start_hour,omitempty"`
	EndHour   int `json:"end_hour,omitempty"`
}

// Resolution is the output of Resolve. Exactly one of Interval or Filter
// is set: rolling and calendar expressions yield one bounded interval,
// day-of-week and hour-of-day expressions yield a recurring filter.
type Resolution struct {
	Interval *Interval `json:"interval,omitempty"`
	Filter   *Filter   `json:"filter,omitempty"`
}
