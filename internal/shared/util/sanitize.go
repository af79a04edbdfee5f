package util

import (
	"strings"
	"unicode/utf8"
)

// SanitizeText strips NUL bytes and non-printing control characters, keeping
// common whitespace, and trims the result. Invalid UTF-8 sequences are dropped.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	// NUL bytes are not valid in PostgreSQL text.
	s = strings.ReplaceAll(s, "\x00", "")

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		ch, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if ch == utf8.RuneError && size == 1 {
			continue
		}
		if ch == '\n' || ch == '\r' || ch == '\t' {
			b.WriteRune(ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f {
			continue
		}
		b.WriteRune(ch)
	}
	return strings.TrimSpace(b.String())
}

// Truncate returns at most max runes of s. The cut is deterministic and never
// splits a multi-byte character.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
