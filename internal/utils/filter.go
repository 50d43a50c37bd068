package utils

import (
	"strings"
)

// IDFilter drops repeated suggestion IDs, keeping the first occurrence.
type IDFilter struct {
	seen map[int]bool
}

// NewIDFilter creates a filter that already rejects the given IDs.
func NewIDFilter(exclude ...int) *IDFilter {
	seen := make(map[int]bool, len(exclude))
	for _, id := range exclude {
		seen[id] = true
	}
	return &IDFilter{seen: seen}
}

// ShouldInclude reports whether id has not been seen yet, and marks it seen.
func (f *IDFilter) ShouldInclude(id int) bool {
	if f.seen[id] {
		return false
	}
	f.seen[id] = true
	return true
}

// HasPrefixIgnoreCase checks if string has prefix case-insensitively
func HasPrefixIgnoreCase(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// HasWordPrefixIgnoreCase reports whether s, or any word of s after a space,
// starts with prefix case-insensitively.
func HasWordPrefixIgnoreCase(s, prefix string) bool {
	if HasPrefixIgnoreCase(s, prefix) {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' && HasPrefixIgnoreCase(s[i+1:], prefix) {
			return true
		}
	}
	return false
}
