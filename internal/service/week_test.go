package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekID(t *testing.T) {
	// A Wednesday
	assert.Equal(t, "2026-W35", WeekID(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)))

	// Jan 1st 2027 is a Friday and still belongs to 2026's last week
	assert.Equal(t, "2026-W53", WeekID(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	// Single digit weeks are zero padded
	assert.Equal(t, "2026-W02", WeekID(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)))
}

func TestWeekBounds(t *testing.T) {
	start, end, err := WeekBounds("2026-W35")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Monday, start.Weekday())
}

func TestWeekBoundsRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)
	id := WeekID(now)

	start, end, err := WeekBounds(id)
	require.NoError(t, err)

	assert.False(t, now.Before(start))
	assert.True(t, now.Before(end))
}

func TestWeekBoundsRejectsGarbage(t *testing.T) {
	for _, id := range []string{"", "garbage", "2026-W00", "2026-W60"} {
		_, _, err := WeekBounds(id)
		assert.Error(t, err, id)
	}
}
