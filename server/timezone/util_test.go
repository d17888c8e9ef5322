package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	loc, err := Parse("Asia/Jakarta")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())

	loc, err = Parse("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = Parse("Invalid/Zone")
	assert.Error(t, err)
	assert.Equal(t, time.UTC, loc, "fallback location is UTC")
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("America/New_York"))
	assert.True(t, IsValid("UTC"))
	assert.True(t, IsValid(""))
	assert.False(t, IsValid("Mars/Olympus_Mons"))
}

func TestStartOfDay(t *testing.T) {
	jakarta := MustParse("Asia/Jakarta")

	// 2024-10-02T01:30 UTC is already 2024-10-02 08:30 in Jakarta.
	utcInstant := time.Date(2024, 10, 2, 1, 30, 0, 0, time.UTC)
	got := StartOfDay(utcInstant, jakarta)
	assert.Equal(t, time.Date(2024, 10, 2, 0, 0, 0, 0, jakarta), got)

	// 2024-10-02T20:00 UTC is 2024-10-03 03:00 in Jakarta.
	utcEvening := time.Date(2024, 10, 2, 20, 0, 0, 0, time.UTC)
	got = StartOfDay(utcEvening, jakarta)
	assert.Equal(t, time.Date(2024, 10, 3, 0, 0, 0, 0, jakarta), got)

	// Nil location defaults to UTC.
	got = StartOfDay(utcEvening, nil)
	assert.Equal(t, time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC), got)
}
