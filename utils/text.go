package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// Truncate cuts s to at most max characters (runes).
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// Ellipsize cuts s to max characters and appends "..." when it was longer.
func Ellipsize(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return Truncate(s, max) + "..."
}
