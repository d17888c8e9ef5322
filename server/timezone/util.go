// Package timezone centralizes IANA timezone parsing and day-boundary
// helpers so every component computes local boundaries the same way.
package timezone

import (
	"time"

	"github.com/pkg/errors"
)

// Parse resolves an IANA timezone identifier (e.g. "Asia/Jakarta").
// An empty identifier means UTC. On failure UTC is returned along with
// the error so callers can fall back deliberately.
func Parse(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, errors.Wrapf(err, "invalid timezone %q", tz)
	}
	return loc, nil
}

// MustParse parses a timezone or panics. For identifiers known valid at
// compile time.
func MustParse(tz string) *time.Location {
	loc, err := Parse(tz)
	if err != nil {
		panic(err)
	}
	return loc
}

// IsValid reports whether tz is a resolvable timezone identifier.
func IsValid(tz string) bool {
	_, err := Parse(tz)
	return err == nil
}

// StartOfDay returns local midnight of t's calendar date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
