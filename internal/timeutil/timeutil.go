// Package timeutil normalizes the timestamp formats found in treatment history.
package timeutil

import (
	"fmt"
	"strconv"
	"time"
)

// naiveLayout matches "2024-01-01 12:00:00" style timestamps with no zone.
// These are interpreted as UTC.
const naiveLayout = "2006-01-02 15:04:05"

// InvalidTimestampError is returned when a timestamp string matches none of
// the recognized formats. Callers treat it as a per-record validation
// failure, not as fatal to the whole batch.
type InvalidTimestampError struct {
	Value string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q", e.Value)
}

// ParseTimestamp parses a timestamp string into a UTC time.
//
// Formats are tried in priority order:
//   - RFC3339 with offset: "2024-01-01T12:00:00Z"
//   - Naive ISO with space: "2024-01-01 12:00:00" (assumed UTC)
//   - Unix milliseconds: "1704110400000"
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse(naiveLayout, s); err == nil {
		return t, nil
	}

	if millis, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC(), nil
	}

	return time.Time{}, &InvalidTimestampError{Value: s}
}

// FormatTimestamp renders a time as RFC3339 in UTC. Round-tripping through
// ParseTimestamp recovers the instant to nanosecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
