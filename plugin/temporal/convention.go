package temporal

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/server/timezone"
)

// Convention carries the locale configuration that makes calendar-aligned
// resolution unambiguous: which weekday starts a week, and the timezone in
// which period boundaries fall on local midnight. It is fixed for the life
// of a resolution session so week boundaries stay self-consistent.
type Convention struct {
	WeekStart time.Weekday
	Location  *time.Location
}

// NewConvention builds a Convention from an IANA timezone identifier.
func NewConvention(weekStart time.Weekday, tz string) (*Convention, error) {
	if weekStart < time.Sunday || weekStart > time.Saturday {
		return nil, errors.Wrapf(ErrMissingConvention, "invalid week start day %d", int(weekStart))
	}
	loc, err := timezone.Parse(tz)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingConvention, "invalid timezone %q", tz)
	}
	return &Convention{WeekStart: weekStart, Location: loc}, nil
}

// valid reports whether the convention is complete enough for
// calendar-aligned resolution.
func (c *Convention) valid() bool {
	return c != nil && c.Location != nil &&
		c.WeekStart >= time.Sunday && c.WeekStart <= time.Saturday
}
