package project

import (
	"math"
	"time"
)

// Stats summarizes a document for the dashboard header.
type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
}

// Summarize counts records overall and per declared category. Every label in
// Categories appears in ByCategory, with zero when no record uses it.
// Records whose category is not declared only count toward Total.
func Summarize(doc Document) Stats {
	stats := Stats{
		Total:      len(doc.Projects),
		ByCategory: make(map[string]int, len(doc.Categories)),
	}
	for _, c := range doc.Categories {
		stats.ByCategory[c] = 0
	}
	for _, r := range doc.Projects {
		if _, ok := stats.ByCategory[r.Category]; ok {
			stats.ByCategory[r.Category]++
		}
	}
	return stats
}

// Freshness buckets a record by how long ago it was last updated.
type Freshness string

const (
	Fresh   Freshness = "fresh"
	Aging   Freshness = "aging"
	Stale   Freshness = "stale"
	Unknown Freshness = "unknown"
)

// dateLayouts are tried in order when parsing record dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
}

// DaysSince returns whole days elapsed between date and now, and false when
// date cannot be parsed.
func DaysSince(date string, now time.Time) (int, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, date)
		if err != nil {
			continue
		}
		days := math.Floor(now.Sub(t).Hours() / 24)
		return int(days), true
	}
	return 0, false
}

// FreshnessOf buckets a day count: up to a week is fresh, up to thirty days
// is aging, anything older is stale.
func FreshnessOf(days int) Freshness {
	switch {
	case days > 30:
		return Stale
	case days > 7:
		return Aging
	default:
		return Fresh
	}
}

// RecordFreshness combines DaysSince and FreshnessOf for a record.
func RecordFreshness(r Record, now time.Time) (int, Freshness) {
	days, ok := DaysSince(r.LastUpdated, now)
	if !ok {
		return 0, Unknown
	}
	return days, FreshnessOf(days)
}
