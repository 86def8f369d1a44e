package domain

import (
	"fmt"
	"strings"
	"time"
)

// IsActive reports whether now falls inside the quest's active window.
// Both bounds are inclusive. A window with ActiveFrom after ActiveTo is never active.
func IsActive(q Quest, now time.Time) bool {
	return !now.Before(q.ActiveFrom) && !now.After(q.ActiveTo)
}

// ModeAt picks scored mode inside the active window and practice mode outside it.
func ModeAt(q Quest, now time.Time) Mode {
	if IsActive(q, now) {
		return ModeScored
	}
	return ModePractice
}

// ValidateWindow rejects windows whose start is after their end.
func ValidateWindow(from, to time.Time) error {
	if from.After(to) {
		return ErrInvalidWindow
	}
	return nil
}

// Zone-less layouts are what datetime-local inputs produce; they are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp and normalises it to UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}
