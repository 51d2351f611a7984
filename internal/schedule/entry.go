package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"spot-attendance-backend/internal/parse"
)

var (
	// ErrUnknownDay is returned when an entry carries neither a valid day number nor a recognizable day name.
	ErrUnknownDay = errors.New("unknown day of week")
	// ErrInvertedRange is returned when an entry does not start before it ends.
	ErrInvertedRange = errors.New("start time is not before end time")
	// ErrMissingTime is returned when an entry has no start or end value at all.
	ErrMissingTime = errors.New("missing time value")
)

// TimeValue is a schedule time as delivered by upstream: either free text
// ("07:30", "7:30 AM", "07:30:00.000") or an already structured clock.
type TimeValue struct {
	Text  string
	Clock *parse.TimeOfDay
}

// TimeText wraps a textual time.
func TimeText(s string) TimeValue {
	return TimeValue{Text: s}
}

// TimeAt wraps a structured time.
func TimeAt(hour, minute int) TimeValue {
	return TimeValue{Clock: &parse.TimeOfDay{Hour: hour, Minute: minute}}
}

// IsZero reports whether no value was supplied.
func (v TimeValue) IsZero() bool {
	return v.Clock == nil && v.Text == ""
}

// Resolve normalizes v into a TimeOfDay.
func (v TimeValue) Resolve() (parse.TimeOfDay, error) {
	switch {
	case v.Clock != nil:
		return parse.NewTimeOfDay(v.Clock.Hour, v.Clock.Minute)
	case v.Text != "":
		return parse.ParseTimeOfDay(v.Text)
	default:
		return parse.TimeOfDay{}, ErrMissingTime
	}
}

// UnmarshalJSON accepts a string or an object with hour/minute fields
// (seconds and nanos are ignored).
func (v *TimeValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = TimeValue{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = TimeText(s)
		return nil
	}

	var obj struct {
		Hour   int `json:"hour"`
		Minute int `json:"minute"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("time value must be a string or an object: %w", err)
	}
	*v = TimeAt(obj.Hour, obj.Minute)
	return nil
}

// MarshalJSON emits the text form when present, otherwise "HH:mm".
func (v TimeValue) MarshalJSON() ([]byte, error) {
	if v.Clock != nil {
		return json.Marshal(v.Clock.String())
	}
	return json.Marshal(v.Text)
}

// Entry is one weekly class meeting. Upstream data arrives in two shapes,
// {dayOfWeek, timeStart, timeEnd} and {day, startTime, endTime}; both decode
// into this single type.
type Entry struct {
	DayOfWeek parse.Weekday `json:"dayOfWeek,omitempty"`
	Day       string        `json:"day,omitempty"`
	Start     TimeValue     `json:"startTime"`
	End       TimeValue     `json:"endTime"`
	Room      string        `json:"room,omitempty"`
	Kind      string        `json:"kind,omitempty"`
}

type entryWire struct {
	DayOfWeek    json.RawMessage `json:"dayOfWeek"`
	Day          string          `json:"day"`
	TimeStart    TimeValue       `json:"timeStart"`
	StartTime    TimeValue       `json:"startTime"`
	TimeEnd      TimeValue       `json:"timeEnd"`
	EndTime      TimeValue       `json:"endTime"`
	Room         string          `json:"room"`
	ScheduleType string          `json:"scheduleType"`
	Kind         string          `json:"kind"`
}

// UnmarshalJSON normalizes both upstream shapes.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var w entryWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	out := Entry{Day: w.Day, Room: w.Room, Kind: w.Kind}
	if out.Kind == "" {
		out.Kind = w.ScheduleType
	}

	out.Start = w.TimeStart
	if out.Start.IsZero() {
		out.Start = w.StartTime
	}
	out.End = w.TimeEnd
	if out.End.IsZero() {
		out.End = w.EndTime
	}

	// dayOfWeek is a number from the mobile API and an enum name ("MONDAY") from the web API.
	if raw := bytes.TrimSpace(w.DayOfWeek); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if n, err := strconv.Atoi(string(raw)); err == nil {
			out.DayOfWeek = parse.Weekday(n)
		} else {
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return fmt.Errorf("dayOfWeek must be a number or a string: %w", err)
			}
			if out.Day == "" {
				out.Day = name
			}
		}
	}

	*e = out
	return nil
}

// Window is a fully resolved weekly meeting.
type Window struct {
	Day   parse.Weekday
	Start parse.TimeOfDay
	End   parse.TimeOfDay
	Room  string
	Kind  string
}

// Resolve turns the entry into a Window. The numeric day wins over the day name.
func (e Entry) Resolve() (Window, error) {
	day := e.DayOfWeek
	if !day.Valid() {
		var ok bool
		day, ok = parse.ParseWeekday(e.Day)
		if !ok {
			return Window{}, fmt.Errorf("%w: %d/%q", ErrUnknownDay, e.DayOfWeek, e.Day)
		}
	}

	start, err := e.Start.Resolve()
	if err != nil {
		return Window{}, fmt.Errorf("start: %w", err)
	}
	end, err := e.End.Resolve()
	if err != nil {
		return Window{}, fmt.Errorf("end: %w", err)
	}
	if !start.Before(end) {
		return Window{}, fmt.Errorf("%w: %s-%s", ErrInvertedRange, start, end)
	}

	return Window{Day: day, Start: start, End: end, Room: e.Room, Kind: e.Kind}, nil
}

// Contains reports whether now lies in [Start-buffer, End] on the window's day.
func (w Window) Contains(now Moment, bufferMinutes int) bool {
	return now.Day == w.Day && withinRange(now.Time, w.Start, w.End, bufferMinutes)
}

func withinRange(now, start, end parse.TimeOfDay, bufferMinutes int) bool {
	if bufferMinutes < 0 {
		bufferMinutes = 0
	}
	bufferedStart := start.Minutes() - bufferMinutes
	t := now.Minutes()
	return bufferedStart <= t && t <= end.Minutes()
}
