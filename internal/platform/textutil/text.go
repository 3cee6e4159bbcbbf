package textutil

import "strings"

// Truncate cuts s to n runes and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Clip cuts s to n runes with no marker.
func Clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Snippet returns up to width runes of text centred on the first case-insensitive
// match of query, with "..." on each cut side. Without a match it returns the head of text.
func Snippet(text, query string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	idx := indexRunes(lower, q)
	if idx < 0 || len(lower) != len(runes) {
		return Truncate(text, width)
	}
	half := width / 2
	start := idx - half
	if start < 0 {
		start = 0
	}
	end := idx + len(q) + half
	if end > len(runes) {
		end = len(runes)
	}
	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
