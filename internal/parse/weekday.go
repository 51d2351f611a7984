package parse

import (
	"strings"
	"time"
)

// Weekday is an ISO day of week, Monday=1 through Sunday=7. Zero means unknown.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayAbbrevs = [...]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

var dayNames = [...]string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// Valid reports whether d is in 1..7.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Abbrev returns "Mon".."Sun", or "Unknown".
func (d Weekday) Abbrev() string {
	if !d.Valid() {
		return "Unknown"
	}
	a := dayAbbrevs[d-1]
	return a[:1] + strings.ToLower(a[1:])
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "Unknown"
	}
	n := dayNames[d-1]
	return n[:1] + strings.ToLower(n[1:])
}

// Names returns the upper-case spellings that identify d inside free text.
func (d Weekday) Names() []string {
	if !d.Valid() {
		return nil
	}
	return []string{dayAbbrevs[d-1], dayNames[d-1]}
}

// WeekdayOf converts a time.Weekday (Sunday=0) to Weekday (Sunday=7).
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// ParseWeekday finds the first day abbreviation contained in raw, ignoring case.
// "Monday", "mon" and "MON/WED" all yield Monday.
func ParseWeekday(raw string) (Weekday, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	for i, abbrev := range dayAbbrevs {
		if strings.Contains(s, abbrev) {
			return Weekday(i + 1), true
		}
	}
	return 0, false
}

// MentionsDay reports whether text contains any spelling of d.
func MentionsDay(text string, d Weekday) bool {
	upper := strings.ToUpper(text)
	for _, name := range d.Names() {
		if strings.Contains(upper, name) {
			return true
		}
	}
	return false
}
