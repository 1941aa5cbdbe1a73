package diary

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Input limits applied by callers before data reaches the store.
const (
	MaxTitleLen = 100
	MaxBodyLen  = 10000
)

const (
	keyLen     = 8
	minKeyYear = 100
)

// ValidKey reports whether key is exactly eight ASCII digits forming a real
// calendar date in YYYYMMDD form. Years below 0100 are rejected.
func ValidKey(key string) bool {
	if len(key) != keyLen {
		return false
	}

	for i := range len(key) {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}

	t, err := time.Parse("20060102", key)

	return err == nil && t.Year() >= minKeyYear
}

// KeyFromDateInput converts an HTML date input value (YYYY-MM-DD) to a key.
// The result is not validated.
func KeyFromDateInput(value string) string {
	return strings.ReplaceAll(value, "-", "")
}

// DateInputFromKey converts a key to YYYY-MM-DD. Keys that are not eight
// bytes long, as can be read from a hand-edited file, are returned unchanged.
func DateInputFromKey(key string) string {
	if len(key) != keyLen {
		return key
	}

	return key[0:4] + "-" + key[4:6] + "-" + key[6:8]
}

// KeyFromTime returns the key for t's calendar date in t's location.
func KeyFromTime(t time.Time) string {
	return t.Format("20060102")
}

// ParseKeyArg accepts YYYYMMDD, YYYY-MM-DD or "today" and returns a
// validated key.
func ParseKeyArg(arg string, now time.Time) (string, error) {
	if arg == "" {
		return "", ErrKeyRequired
	}

	key := arg

	switch {
	case arg == "today":
		key = KeyFromTime(now)
	case len(arg) == len("2006-01-02") && arg[4] == '-' && arg[7] == '-':
		key = KeyFromDateInput(arg)
	}

	if !ValidKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, arg)
	}

	return key, nil
}

// ClampTitle normalizes line endings, trims surrounding whitespace and
// truncates to [MaxTitleLen] characters.
func ClampTitle(title string) string {
	return truncateRunes(strings.TrimSpace(normalizeLineEndings(title)), MaxTitleLen)
}

// ClampBody normalizes line endings and truncates to [MaxBodyLen] characters.
func ClampBody(body string) string {
	return truncateRunes(normalizeLineEndings(body), MaxBodyLen)
}

func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}

		i++
	}

	return s
}
