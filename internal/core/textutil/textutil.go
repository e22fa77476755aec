// Package textutil bounds and cleans extracted text.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// wordBoundarySlack is how far Truncate walks back looking for whitespace
// before giving up and cutting mid-word.
const wordBoundarySlack = 50

// Truncate bounds s to at most max bytes, never splitting a multi-byte
// rune. With wordBoundary set it prefers the nearest preceding whitespace,
// unless that boundary lies more than wordBoundarySlack bytes back. The
// second return reports whether anything was cut.
func Truncate(s string, max int, wordBoundary bool) (string, bool) {
	if max <= 0 {
		return "", len(s) > 0
	}
	if len(s) <= max {
		return s, false
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	if wordBoundary {
		ws := cut
		for ws > 0 && !isASCIISpaceOrUnicode(s, ws) {
			ws--
		}
		if ws > 0 && cut-ws <= wordBoundarySlack {
			cut = ws
		}
	}

	return strings.TrimRight(s[:cut], " \t\r\n"), true
}

func isASCIISpaceOrUnicode(s string, i int) bool {
	b := s[i]
	if b < utf8.RuneSelf {
		return b == ' ' || b == '\t' || b == '\n' || b == '\r'
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

// NormalizeWhitespace collapses every run of whitespace to a single space
// and trims the ends.
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(b.String())
}

// EnsureUTF8 replaces invalid byte sequences with the Unicode replacement
// character so results are always valid UTF-8.
func EnsureUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}
