package diary

import (
	"slices"
	"strings"
	"time"
)

// Entry is one diary record. Key is the unique YYYYMMDD date.
//
// CreatedAt and UpdatedAt are kept as the strings read from disk so that a
// decode/encode cycle never rewrites them.
type Entry struct {
	Key       string `json:"dateKey"`
	Title     string `json:"title"`
	Body      string `json:"content"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// TimestampLayout is the layout used for CreatedAt and UpdatedAt.
// Always formatted in UTC with millisecond precision, e.g. 2024-01-01T09:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in [TimestampLayout].
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// SortAscending orders entries by key, oldest date first. This is the
// on-disk order.
func SortAscending(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})
}

// SortDescending orders entries by key, newest date first. This is the
// listing order.
func SortDescending(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(b.Key, a.Key)
	})
}
