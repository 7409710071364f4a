// Package bounce decides whether an inbound sender matches an account's bounce list.
package bounce

import (
	"strings"
)

// Wildcard is the pattern that matches every sender. Empty entries match nothing.
const Wildcard = "*"

// senderDomain returns the lower-cased text after the last '@', or "" when there is none.
func senderDomain(sender string) string {
	i := strings.LastIndex(sender, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(sender[i+1:])
}

// Matches reports whether sender matches a single bounce pattern.
//
// A pattern is one of:
//   - "*", matching any sender
//   - a full address, matched case-insensitively
//   - a domain (no '@'), matching that domain and any of its subdomains
func Matches(sender, pattern string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	if pattern == Wildcard {
		return true
	}

	normalized := strings.ToLower(strings.TrimSpace(sender))
	if normalized == pattern {
		return true
	}
	if strings.Contains(pattern, "@") {
		return false
	}

	domain := senderDomain(normalized)
	if domain == "" {
		return false
	}
	return domain == pattern || strings.HasSuffix(domain, "."+pattern)
}

// Patterns flattens bounce list entries into individual patterns. An entry may hold
// several comma-separated patterns; blanks are dropped.
func Patterns(entries []string) []string {
	var patterns []string
	for _, entry := range entries {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
	}
	return patterns
}

// ShouldBounceSender reports whether any pattern in any entry matches sender.
func ShouldBounceSender(sender string, entries []string) bool {
	for _, p := range Patterns(entries) {
		if Matches(sender, p) {
			return true
		}
	}
	return false
}
