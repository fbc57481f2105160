package sanitize

import (
	"regexp"
	"strings"
)

// Plain email (case-insensitive)
var reEmail = regexp.MustCompile(`(?i)[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}`)

// Common phone shapes: +55 11 99999-0000, (11) 3333-4444, 011999990000...
// Only digits, spaces, dashes, dots, parentheses and a leading plus; at least 9 digits.
var rePhone = regexp.MustCompile(`\+?\(?\d[\d\s\-\.()]{7,}\d`)

// RedactPII masks email addresses and phone numbers, e.g. before logging free text.
func RedactPII(s string) string {
	if s == "" {
		return s
	}
	s = reEmail.ReplaceAllString(s, "[redacted email]")
	s = rePhone.ReplaceAllString(s, "[redacted phone]")
	return s
}

// Summary cuts s at a word boundary no longer than max runes, for previews.
func Summary(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	i := max
	for i > 0 && r[i] != ' ' {
		i--
	}
	if i <= 0 {
		i = max
	}
	return strings.TrimRight(string(r[:i]), " ") + "…"
}
