// Package temporal resolves disambiguated temporal expressions into
// half-open date intervals or recurring predicates.
//
// The package is deliberately dumb about natural language: callers (the
// query engine) must have already decided whether a phrase means a rolling
// window or a calendar-aligned period before building an Expression here.
// Resolution is a pure function of the expression, an explicit reference
// instant and a calendar convention, so results are reproducible in tests.
package temporal

import (
	"fmt"
	"time"
)

// Unit is the step unit of a rolling window.
type Unit int

const (
	UnitDays Unit = iota
	UnitHours
)

func (u Unit) String() string {
	switch u {
	case UnitDays:
		return "days"
	case UnitHours:
		return "hours"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// Granularity is the alignment of a calendar period.
type Granularity int

const (
	GranularityWeek Granularity = iota
	GranularityMonth
	GranularityQuarter
	GranularityYear
)

func (g Granularity) String() string {
	switch g {
	case GranularityWeek:
		return "week"
	case GranularityMonth:
		return "month"
	case GranularityQuarter:
		return "quarter"
	case GranularityYear:
		return "year"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Kind discriminates the Expression variants. Exactly one variant is
// active per expression; composite filters are expressed as an ordered
// list of expressions, never as a merged variant.
type Kind int

const (
	// KindRollingWindow is a moving window anchored to the reference
	// instant, e.g. "past 7 days".
	KindRollingWindow Kind = iota
	// KindCalendarPeriod is a full calendar-aligned period selected by
	// offset from the period containing the reference, e.g. "last week".
	KindCalendarPeriod
	// KindDayOfWeek is a recurring weekday-set membership filter,
	// e.g. weekends only.
	KindDayOfWeek
	// KindHourOfDay is a recurring half-open hour-of-day range filter,
	// e.g. business hours.
	KindHourOfDay
)

func (k Kind) String() string {
	switch k {
	case KindRollingWindow:
		return "rolling_window"
	case KindCalendarPeriod:
		return "calendar_period"
	case KindDayOfWeek:
		return "day_of_week"
	case KindHourOfDay:
		return "hour_of_day"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Expression is a tagged variant over the four supported temporal forms.
// Use the constructors below; only the fields of the active variant are
// meaningful.
type Expression struct {
	Kind Kind

	// Rolling window fields.
	Unit  Unit
	Count int

	// Calendar period fields. Offset 0 is the period containing the
	// reference instant, -1 the previous one.
	Granularity Granularity
	Offset      int

	// Recurring filter fields.
	Weekdays  []time.Weekday
	StartHour int
	EndHour   int
}

// RollingWindow builds a "past N units" expression anchored to the
// reference instant, not a calendar boundary.
func RollingWindow(unit Unit, count int) Expression {
	return Expression{Kind: KindRollingWindow, Unit: unit, Count: count}
}

// CalendarPeriod builds a calendar-aligned period expression.
func CalendarPeriod(granularity Granularity, offset int) Expression {
	return Expression{Kind: KindCalendarPeriod, Granularity: granularity, Offset: offset}
}

// DayOfWeekFilter builds a recurring weekday membership filter.
func DayOfWeekFilter(days ...time.Weekday) Expression {
	return Expression{Kind: KindDayOfWeek, Weekdays: days}
}

// HourOfDayFilter builds a recurring half-open [start, end) hour filter
// within a day. End may be 24 to cover through midnight.
func HourOfDayFilter(startHour, endHour int) Expression {
	return Expression{Kind: KindHourOfDay, StartHour: startHour, EndHour: endHour}
}

func (e Expression) String() string {
	switch e.Kind {
	case KindRollingWindow:
		return fmt.Sprintf("rolling %d %s", e.Count, e.Unit)
	case KindCalendarPeriod:
		return fmt.Sprintf("%s offset %d", e.Granularity, e.Offset)
	case KindDayOfWeek:
		return fmt.Sprintf("weekdays %v", e.Weekdays)
	case KindHourOfDay:
		return fmt.Sprintf("hours [%d, %d)", e.StartHour, e.EndHour)
	default:
		return e.Kind.String()
	}
}
