package schedule

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"spot-attendance-backend/internal/parse"
)

var legacyRangeRe = regexp.MustCompile(`(?i)(\d+:\d+\s*[AP]M)\s*-\s*(\d+:\d+\s*[AP]M)`)

// legacyContains scans a display string like "Mon 9:00PM-10:00PM, Wed 7:30AM-10:30AM"
// for a segment naming today whose time range contains now.
func legacyContains(legacy string, q Query) bool {
	for _, segment := range strings.Split(legacy, ",") {
		if !parse.MentionsDay(segment, q.Now.Day) {
			continue
		}
		m := legacyRangeRe.FindStringSubmatch(segment)
		if m == nil {
			continue
		}

		start, err := parse.ParseAmPm(m[1])
		if err != nil {
			log.Printf("Warning: could not parse legacy start time %q: %v", m[1], err)
			continue
		}
		end, err := parse.ParseAmPm(m[2])
		if err != nil {
			log.Printf("Warning: could not parse legacy end time %q: %v", m[2], err)
			continue
		}

		if withinRange(q.Now.Time, start, end, q.BufferMinutes) {
			return true
		}
	}
	return false
}

// FormatLegacy renders windows the way the legacy display string is written:
// "Mon 7:30AM-10:30AM | Room 203 (LEC), Wed ...".
func FormatLegacy(windows []Window) string {
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, fmt.Sprintf("%s %s-%s | %s (%s)",
			w.Day.Abbrev(), w.Start.Format12(), w.End.Format12(), w.Room, w.Kind))
	}
	return strings.Join(parts, ", ")
}

// ResolveAll resolves every entry that can be resolved, logging the rest.
func ResolveAll(entries []Entry) []Window {
	windows := make([]Window, 0, len(entries))
	for i, e := range entries {
		w, err := e.Resolve()
		if err != nil {
			log.Printf("Warning: skipping schedule entry %d: %v", i, err)
			continue
		}
		windows = append(windows, w)
	}
	return windows
}
