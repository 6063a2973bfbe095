package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeTimeRe captures "N [units] ago", e.g. "2 days ago" or "6 hours ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(week|day|hour)s?\s+ago$`)

// ParseRelativeTime converts strings like "2 days ago" into a time.Time before now.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid relative time value: %s", matches[1])
	}

	switch matches[2] {
	case "week":
		return now.Add(time.Duration(-value) * 7 * 24 * time.Hour), nil
	case "day":
		return now.Add(time.Duration(-value) * 24 * time.Hour), nil
	default:
		return now.Add(time.Duration(-value) * time.Hour), nil
	}
}

// ParseTime accepts an RFC3339 timestamp, a bare "2006-01-02T15" hour, or a relative "N units ago".
func ParseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(HourFormat, s); err == nil {
		return t.UTC(), nil
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339, %q or 'N [units] ago': %w", HourFormat, err)
	}
	return t.UTC(), nil
}
