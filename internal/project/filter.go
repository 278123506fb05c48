package project

import "strings"

// Filter returns the records that match both category and term, in input
// order. An empty category or term matches everything.
//
// Category matching is exact and case-sensitive. Term matching is a
// case-insensitive substring test against name, purpose, title and tags.
func Filter(records []Record, category, term string) []Record {
	needle := strings.ToLower(term)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if category != "" && r.Category != category {
			continue
		}
		if needle != "" && !r.matches(needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matches expects needle to be lower-cased already.
func (r Record) matches(needle string) bool {
	if contains(r.Name, needle) || contains(r.Purpose, needle) {
		return true
	}
	if r.Title != nil && contains(*r.Title, needle) {
		return true
	}
	for _, tag := range r.Tags {
		if contains(tag, needle) {
			return true
		}
	}
	return false
}

func contains(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
