package service

import (
	"fmt"
	"time"
)

// WeekID returns the ISO week bucket key for t, e.g. "2026-W35".
// Buckets run Monday 00:00:00 UTC to the next Monday.
func WeekID(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekBounds recomputes the [start, end) boundaries of a week id. The
// boundaries are derived, never stored, so the id alone has to be
// enough to get them back.
func WeekBounds(weekID string) (time.Time, time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(weekID, "%d-W%02d", &year, &week); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid week id %q, %w", weekID, err)
	}

	if week < 1 || week > 53 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid week id %q", weekID)
	}

	// January 4th is always inside ISO week 1
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)

	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}

	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	start := week1Monday.AddDate(0, 0, (week-1)*7)

	return start, start.AddDate(0, 0, 7), nil
}
