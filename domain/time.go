package domain

import (
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 rendering used for persisted timestamps. It is
// fixed width so lexical order equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Fractional seconds are accepted after any seconds field without being
// spelled out in the layout.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// Timestamp normalizes t to the precision tasks are stored with.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTime renders t with TimeLayout.
func FormatTime(t time.Time) string {
	return Timestamp(t).Format(TimeLayout)
}

// ParseDate accepts an ISO-8601 date or date-time, with a T or space separator
// and a zone written as Z, ±hh:mm, ±hhmm or ±hh. Values without a zone are UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Timestamp(t), true
		}
	}
	return time.Time{}, false
}
