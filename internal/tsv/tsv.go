// Package tsv escapes free text so it fits in a single tab-separated field.
//
// Grammar: a backslash becomes `\\`, a horizontal tab becomes `\t` and a line
// feed becomes `\n`. Nothing else is touched, so carriage returns and all
// other characters pass through unchanged.
package tsv

import "strings"

const escapeChar = '\\'

// Escape returns s with every backslash, tab and line feed replaced by its
// two-character escape sequence. The result never contains a tab or a line
// feed.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\\t\n") {
		return s
	}

	var b strings.Builder

	b.Grow(len(s) + len(s)/8)

	for i := range len(s) {
		switch c := s[i]; c {
		case escapeChar:
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// Unescape reverses [Escape].
//
// A backslash followed by anything other than `\`, `t` or `n` (including a
// lone trailing backslash) is not an escape: both characters are kept as
// written. Unescape never fails.
func Unescape(s string) string {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s
	}

	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != escapeChar || i+1 == len(s) {
			b.WriteByte(c)

			continue
		}

		switch s[i+1] {
		case escapeChar:
			b.WriteByte(escapeChar)
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(c)

			continue
		}

		i++
	}

	return b.String()
}
