package memory

import (
	"strings"
	"time"
)

// layouts accepted for stored timestamps, tried in order. Zone-less values
// are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. It reports false for empty or
// unparseable input, which callers treat as "no timestamp".
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t the way every store writes it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Newer reports whether a sorts before b in recency order: parseable
// timestamps newest first, then records without one.
func Newer(a, b Record) bool {
	ta, okA := ParseTimestamp(a.Timestamp)
	tb, okB := ParseTimestamp(b.Timestamp)
	switch {
	case okA && okB:
		return ta.After(tb)
	case okA:
		return true
	default:
		return false
	}
}
