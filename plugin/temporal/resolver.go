package temporal

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Resolve turns a disambiguated expression into a Resolution using the
// given reference instant and calendar convention. The reference is
// threaded explicitly rather than read from the clock so that one logical
// request sees a single consistent "now" no matter how often resolution
// runs, and so tests replay exact instants.
//
// Rolling windows are anchored to the reference instant itself. Calendar
// periods are the FULL period selected by offset, never truncated at the
// reference; see Interval.TruncateEnd for the to-date conjunction.
func Resolve(expr Expression, reference time.Time, conv *Convention) (Resolution, error) {
	switch expr.Kind {
	case KindRollingWindow:
		return resolveRollingWindow(expr, reference)
	case KindCalendarPeriod:
		return resolveCalendarPeriod(expr, reference, conv)
	case KindDayOfWeek:
		return resolveDayOfWeek(expr, conv)
	case KindHourOfDay:
		return resolveHourOfDay(expr, conv)
	default:
		return Resolution{}, errors.Wrapf(ErrUnsupportedGranularity, "unknown expression kind %d", int(expr.Kind))
	}
}

// ResolveAll resolves an ordered conjunction of expressions. The order is
// preserved so downstream rendering emits predicates deterministically.
// Any failing member fails the whole conjunction.
func ResolveAll(exprs []Expression, reference time.Time, conv *Convention) ([]Resolution, error) {
	resolutions := make([]Resolution, 0, len(exprs))
	for i, expr := range exprs {
		res, err := Resolve(expr, reference, conv)
		if err != nil {
			return nil, errors.Wrapf(err, "expression %d (%s)", i, expr)
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, nil
}

func resolveRollingWindow(expr Expression, reference time.Time) (Resolution, error) {
	if expr.Count <= 0 {
		return Resolution{}, errors.Wrapf(ErrInvalidRange, "rolling window count must be positive, got %d", expr.Count)
	}

	var step time.Duration
	switch expr.Unit {
	case UnitDays:
		step = 24 * time.Hour
	case UnitHours:
		step = time.Hour
	default:
		return Resolution{}, errors.Wrapf(ErrUnsupportedGranularity, "rolling window unit %s", expr.Unit)
	}

	end := reference
	start := end.Add(-time.Duration(expr.Count) * step)
	return Resolution{Interval: &Interval{Start: start, End: end}}, nil
}

func resolveCalendarPeriod(expr Expression, reference time.Time, conv *Convention) (Resolution, error) {
	if !conv.valid() {
		return Resolution{}, errors.Wrap(ErrMissingConvention, "calendar period requires week start and timezone")
	}

	local := reference.In(conv.Location)

	if expr.Granularity == GranularityWeek {
		iv := weekInterval(local, conv, expr.Offset)
		return Resolution{Interval: &iv}, nil
	}

	// Month, quarter and year share one month-stepped routine so the
	// rollover arithmetic cannot drift apart between granularities.
	var stepMonths int
	var anchor time.Month
	switch expr.Granularity {
	case GranularityMonth:
		stepMonths = 1
		anchor = local.Month()
	case GranularityQuarter:
		stepMonths = 3
		anchor = quarterStartMonth(local.Month())
	case GranularityYear:
		stepMonths = 12
		anchor = time.January
	default:
		return Resolution{}, errors.Wrapf(ErrUnsupportedGranularity, "calendar granularity %s", expr.Granularity)
	}

	iv := monthSteppedInterval(local.Year(), anchor, stepMonths, expr.Offset, conv.Location)
	return Resolution{Interval: &iv}, nil
}

// weekInterval returns the full calendar week at the given offset from the
// week containing local. The week starts on the most recent occurrence of
// the convention's week start day at or before local's calendar date, at
// local midnight.
func weekInterval(local time.Time, conv *Convention, offset int) Interval {
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, conv.Location)
	back := (int(midnight.Weekday()) - int(conv.WeekStart) + 7) % 7
	start := midnight.AddDate(0, 0, -back+offset*7)
	return Interval{Start: start, End: start.AddDate(0, 0, 7)}
}

// monthSteppedInterval computes [first day of period, first day of next
// period) for a period of stepMonths months anchored at anchor in year.
// time.Date normalizes out-of-range months, which handles year rollover
// for offsets of any magnitude.
func monthSteppedInterval(year int, anchor time.Month, stepMonths, offset int, loc *time.Location) Interval {
	startMonth := int(anchor) + offset*stepMonths
	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, loc)
	end := time.Date(year, time.Month(startMonth+stepMonths), 1, 0, 0, 0, 0, loc)
	return Interval{Start: start, End: end}
}

func quarterStartMonth(m time.Month) time.Month {
	return time.Month((int(m)-1)/3*3 + 1)
}

func resolveDayOfWeek(expr Expression, conv *Convention) (Resolution, error) {
	if !conv.valid() {
		return Resolution{}, errors.Wrap(ErrMissingConvention, "weekday filter requires a timezone to extract local weekdays")
	}
	if len(expr.Weekdays) == 0 {
		return Resolution{}, errors.Wrap(ErrInvalidRange, "weekday filter requires at least one weekday")
	}

	seen := make(map[time.Weekday]bool, len(expr.Weekdays))
	days := make([]time.Weekday, 0, len(expr.Weekdays))
	for _, d := range expr.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return Resolution{}, errors.Wrapf(ErrInvalidRange, "weekday %d out of range", int(d))
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	return Resolution{Filter: &Filter{
		Kind:     FilterWeekday,
		Location: conv.Location.String(),
		Weekdays: days,
	}}, nil
}

func resolveHourOfDay(expr Expression, conv *Convention) (Resolution, error) {
	if !conv.valid() {
		return Resolution{}, errors.Wrap(ErrMissingConvention, "hour filter requires a timezone to extract local hours")
	}
	if expr.StartHour < 0 || expr.EndHour > 24 || expr.StartHour >= expr.EndHour {
		return Resolution{}, errors.Wrapf(ErrInvalidRange, "hour range [%d, %d) is not a valid half-open range within a day", expr.StartHour, expr.EndHour)
	}
	return Resolution{Filter: &Filter{
		Kind:      FilterHourOfDay,
		Location:  conv.Location.String(),
		StartHour: expr.StartHour,
		EndHour:   expr.EndHour,
	}}, nil
}
