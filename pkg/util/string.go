package util

import (
	"strings"
	"unicode/utf8"
)

// NormalizeHashtags cleans user supplied tags: surrounding quotes, brackets
// and a leading '#' are removed, blanks dropped and duplicates collapsed
// case-insensitively while keeping the first spelling and order.
func NormalizeHashtags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.Trim(tag, "[]\"'")
		tag = strings.TrimLeft(tag, "#")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, tag)
	}

	return cleaned
}

// ParseTags splits a comma separated tag string, e.g. "[go, #backend]".
func ParseTags(tagStr string) []string {
	if tagStr == "" {
		return []string{}
	}
	return NormalizeHashtags(strings.Split(strings.Trim(tagStr, "[]"), ","))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// FirstName returns the first whitespace separated word of a display name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
