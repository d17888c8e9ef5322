package temporal

import "errors"

// Resolution failures are typed so callers can tell an out-of-range input
// apart from a missing convention and react accordingly. None of them is
// retryable: resolution is pure and deterministic, so retrying changes
// nothing. The resolver never falls back to a default interval; silently
// misreading a time range is a correctness defect, not a convenience.
var (
	// ErrInvalidRange marks a non-positive count, an empty weekday set,
	// or a degenerate hour range.
	ErrInvalidRange = errors.New("temporal: invalid range")

	// ErrUnsupportedGranularity marks a unit, granularity or expression
	// kind the resolver was not built to handle.
	ErrUnsupportedGranularity = errors.New("temporal: unsupported granularity")

	// ErrMissingConvention marks a calendar-aligned request without a
	// resolved week start or timezone.
	ErrMissingConvention = errors.New("temporal: missing calendar convention")
)
