package core

import "strings"

// ParseWorkshopID returns the first maximal run of ASCII digits in s.
// ok is false when s contains no digits.
func ParseWorkshopID(s string) (id string, ok bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return "", false
	}
	end := strings.IndexFunc(s[start:], func(r rune) bool { return !isDigit(r) })
	if end < 0 {
		return s[start:], true
	}
	return s[start : start+end], true
}

// ParseWorkshopIDs parses each line and returns the identifiers in first-seen
// order with duplicates removed. Lines without an identifier are skipped.
func ParseWorkshopIDs(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		id, ok := ParseWorkshopID(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
