package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clock24Re = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	amPmRe    = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([AP]M)$`)

	// Layouts accepted for ISO-8601 local time literals, e.g. "07:30:00.000" or "T07:30".
	isoLayouts = []string{
		"15:04:05.999999999",
		"T15:04:05.999999999",
		"T15:04",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
	}
)

// ErrUnparsableTime is returned when none of the supported formats match.
var ErrUnparsableTime = errors.New("unparsable time of day")

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// NewTimeOfDay validates the hour and minute ranges.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d out of range", ErrUnparsableTime, hour, minute)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ClockOf returns the time of day of t, dropping seconds.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than o.
func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Format12 renders t as "7:30AM".
func (t TimeOfDay) Format12() string {
	suffix := "AM"
	if t.Hour >= 12 {
		suffix = "PM"
	}
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d%s", h, t.Minute, suffix)
}

// ParseTimeOfDay tries, in order, 24-hour "HH:mm[:ss]", 12-hour "h:mm AM|PM"
// and ISO local time. The first format that parses wins.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)

	if t, ok := parse24Hour(s); ok {
		return t, nil
	}
	if t, err := ParseAmPm(s); err == nil {
		return t, nil
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return ClockOf(parsed), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrUnparsableTime, raw)
}

// ParseAmPm parses a 12-hour time such as "7:30AM" or "9:00 pm".
func ParseAmPm(raw string) (TimeOfDay, error) {
	m := amPmRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q is not h:mm AM|PM", ErrUnparsableTime, raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 {
		return TimeOfDay{}, fmt.Errorf("%w: hour %d in %q", ErrUnparsableTime, hour, raw)
	}

	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	return NewTimeOfDay(hour, minute)
}

func parse24Hour(s string) (TimeOfDay, bool) {
	m := clock24Re.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return TimeOfDay{}, false
		}
	}
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		return TimeOfDay{}, false
	}
	return t, true
}
