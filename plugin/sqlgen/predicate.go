package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/plugin/temporal"
)

// RenderPredicate renders one temporal resolution as a SQL predicate on
// column. Interval resolutions become a half-open range comparison; the
// two-sided >= / < pair keeps adjacent periods from double-counting the
// boundary instant. Filter resolutions become per-row extraction tests.
func RenderPredicate(d Dialect, column string, res temporal.Resolution) (string, error) {
	if strings.TrimSpace(column) == "" {
		return "", errors.New("predicate column is required")
	}

	switch {
	case res.Interval != nil:
		return fmt.Sprintf("%s >= %s AND %s < %s",
			column, d.timestampLiteral(res.Interval.Start),
			column, d.timestampLiteral(res.Interval.End)), nil

	case res.Filter != nil:
		return renderFilter(d, column, res.Filter)

	default:
		return "", errors.New("empty resolution: neither interval nor filter is set")
	}
}

// RenderConjunction renders an ordered list of resolutions as a single
// AND-joined predicate, preserving caller order.
func RenderConjunction(d Dialect, column string, resolutions []temporal.Resolution) (string, error) {
	if len(resolutions) == 0 {
		return "", errors.New("no resolutions to render")
	}

	parts := make([]string, 0, len(resolutions))
	for i, res := range resolutions {
		part, err := RenderPredicate(d, column, res)
		if err != nil {
			return "", errors.Wrapf(err, "resolution %d", i)
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, ") AND (") + ")", nil
}

func renderFilter(d Dialect, column string, f *temporal.Filter) (string, error) {
	if f.Location == "" {
		return "", errors.New("filter is missing its timezone")
	}
	loc, err := time.LoadLocation(f.Location)
	if err != nil {
		return "", errors.Wrapf(err, "filter timezone %q", f.Location)
	}
	// SQLite has no timezone database, so it gets the zone's current
	// UTC offset as a strftime modifier. Exact for fixed-offset zones;
	// rows near a DST transition in shifting zones can land one hour
	// off.
	_, offsetSeconds := time.Now().In(loc).Zone()
	offsetMinutes := offsetSeconds / 60

	switch f.Kind {
	case temporal.FilterWeekday:
		if len(f.Weekdays) == 0 {
			return "", errors.New("weekday filter has empty set")
		}
		nums := make([]string, 0, len(f.Weekdays))
		for _, day := range f.Weekdays {
			nums = append(nums, strconv.Itoa(d.weekdayNumber(day)))
		}
		expr := d.weekdayExpr(column, f.Location, offsetMinutes)
		return fmt.Sprintf("%s IN (%s)", expr, strings.Join(nums, ", ")), nil

	case temporal.FilterHourOfDay:
		expr := d.hourExpr(column, f.Location, offsetMinutes)
		return fmt.Sprintf("%s >= %d AND %s < %d", expr, f.StartHour, expr, f.EndHour), nil

	default:
		return "", errors.Errorf("unknown filter kind %d", int(f.Kind))
	}
}
