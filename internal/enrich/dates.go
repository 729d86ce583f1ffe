package enrich

import (
	"regexp"
	"strings"
	"time"
)

// Matches any explicit timezone marker: a zone name, Zulu suffix, or a
// numeric offset like +0100 / +01:00.
var tzMarker = regexp.MustCompile(`GMT|UTC|Z|[+-]\d{2}:?\d{2}`)

// Layouts observed across the source publications. The MST variants also
// catch strings that NormalizeTimezone tagged with GMT.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05 MST",
	"2006-01-02 15:04:05 MST",
	"Jan 2, 2006 3:04 PM MST",
	"January 2, 2006 3:04 PM MST",
	"2 Jan 2006 15:04 MST",
	"2 Jan 2006 MST",
	"2 January 2006 MST",
	"2006-01-02 MST",
}

// NormalizeTimezone appends GMT to date strings that carry no explicit zone.
// Every publication ingested here is GMT-based; without this the scraping
// host's local offset silently shifts all times. Idempotent on input that
// is already tagged.
func NormalizeTimezone(s string) string {
	if tzMarker.MatchString(s) {
		return s
	}
	return s + " GMT"
}

// ParseDate turns a date string from a feed or article page into a UTC
// instant. The second return is false when no known layout matches.
func ParseDate(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}
	cleaned = NormalizeTimezone(cleaned)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
