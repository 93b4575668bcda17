package util

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Truncate keeps the first n runes of s and appends suffix when anything was cut.
func Truncate(s string, n int, suffix string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}

// Prefix returns at most the first n runes of s.
func Prefix(s string, n int) string {
	return Truncate(s, n, "")
}

// LastDigits returns the trailing k decimal digits of v.
func LastDigits(v int64, k int) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= k {
		return s
	}
	return s[len(s)-k:]
}

// HasAnySuffix returns true if s ends with any of the suffixes.
func HasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// ContainsFold returns true if text contains needle (case-insensitive).
func ContainsFold(text, needle string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
}
