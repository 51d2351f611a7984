package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-attendance-backend/internal/parse"
)

func at(day parse.Weekday, hour, minute int) Moment {
	return Moment{Day: day, Time: parse.TimeOfDay{Hour: hour, Minute: minute}}
}

func TestIsWithinWindow_MondayMorningClass(t *testing.T) {
	s := Schedule{Entries: []Entry{
		{DayOfWeek: parse.Monday, Start: TimeText("07:30"), End: TimeText("10:30")},
	}}

	testCases := []struct {
		name     string
		now      Moment
		expected bool
	}{
		{name: "inside the buffer", now: at(parse.Monday, 7, 22), expected: true},
		{name: "exactly at buffered start", now: at(parse.Monday, 7, 20), expected: true},
		{name: "one minute before buffered start", now: at(parse.Monday, 7, 19), expected: false},
		{name: "during class", now: at(parse.Monday, 9, 0), expected: true},
		{name: "exactly at end", now: at(parse.Monday, 10, 30), expected: true},
		{name: "one minute after end", now: at(parse.Monday, 10, 31), expected: false},
		{name: "right time wrong day", now: at(parse.Tuesday, 9, 0), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := Query{Now: tc.now, BufferMinutes: DefaultBufferMinutes}
			assert.Equal(t, tc.expected, IsWithinWindow(s, q))
		})
	}
}

func TestIsWithinWindow_MixedFormats(t *testing.T) {
	q := Query{Now: at(parse.Thursday, 14, 5), BufferMinutes: 10}

	twentyFour := Schedule{Entries: []Entry{{DayOfWeek: parse.Thursday, Start: TimeText("14:00"), End: TimeText("15:00")}}}
	twelveHour := Schedule{Entries: []Entry{{DayOfWeek: parse.Thursday, Start: TimeText("2:00 PM"), End: TimeText("3:00 PM")}}}
	structured := Schedule{Entries: []Entry{{DayOfWeek: parse.Thursday, Start: TimeAt(14, 0), End: TimeAt(15, 0)}}}

	assert.True(t, IsWithinWindow(twentyFour, q))
	assert.True(t, IsWithinWindow(twelveHour, q))
	assert.True(t, IsWithinWindow(structured, q))
}

func TestIsWithinWindow_DayNameFallback(t *testing.T) {
	s := Schedule{Entries: []Entry{
		{Day: "wednesday", Start: TimeText("7:30AM"), End: TimeText("10:30AM")},
	}}
	assert.True(t, IsWithinWindow(s, Query{Now: at(parse.Wednesday, 8, 0), BufferMinutes: 10}))
	assert.False(t, IsWithinWindow(s, Query{Now: at(parse.Monday, 8, 0), BufferMinutes: 10}))
}

func TestIsWithinWindow_MalformedEntriesAreSkipped(t *testing.T) {
	s := Schedule{Entries: []Entry{
		{Day: "someday", Start: TimeText("07:30"), End: TimeText("10:30")},
		{DayOfWeek: parse.Friday, Start: TimeText("later"), End: TimeText("10:30")},
		{DayOfWeek: parse.Friday, Start: TimeText("11:00"), End: TimeText("10:00")},
		{DayOfWeek: parse.Friday},
		{DayOfWeek: parse.Friday, Start: TimeText("13:00"), End: TimeText("14:00")},
	}}

	assert.True(t, IsWithinWindow(s, Query{Now: at(parse.Friday, 13, 30), BufferMinutes: 10}))
	assert.False(t, IsWithinWindow(s, Query{Now: at(parse.Friday, 10, 15), BufferMinutes: 10}))
}

func TestIsWithinWindow_Legacy(t *testing.T) {
	s := Schedule{Legacy: "Mon 9:00PM-10:00PM, Wed 7:30AM-10:30AM"}

	testCases := []struct {
		name     string
		now      Moment
		expected bool
	}{
		{name: "wednesday inside buffer", now: at(parse.Wednesday, 7, 25), expected: true},
		{name: "wednesday before buffer", now: at(parse.Wednesday, 7, 19), expected: false},
		{name: "monday evening", now: at(parse.Monday, 21, 30), expected: true},
		{name: "monday morning uses wednesday times only on wednesday", now: at(parse.Monday, 8, 0), expected: false},
		{name: "no segment for today", now: at(parse.Friday, 8, 0), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsWithinWindow(s, Query{Now: tc.now, BufferMinutes: 10}))
		})
	}
}

func TestIsWithinWindow_LegacyAfterStructuredMiss(t *testing.T) {
	s := Schedule{
		Entries: []Entry{{DayOfWeek: parse.Monday, Start: TimeText("07:30"), End: TimeText("10:30")}},
		Legacy:  "Tue 1:00 pm - 2:30 pm | Room 101 (LAB)",
	}
	assert.True(t, IsWithinWindow(s, Query{Now: at(parse.Tuesday, 12, 55), BufferMinutes: 10}))
}

func TestIsWithinWindow_NothingToMatch(t *testing.T) {
	assert.False(t, IsWithinWindow(Schedule{}, Query{Now: at(parse.Monday, 8, 0), BufferMinutes: 10}))
	assert.False(t, IsWithinWindow(Schedule{Legacy: "No Schedule"}, Query{Now: at(parse.Monday, 8, 0)}))
}

func TestIsWithinWindow_BufferBeforeMidnightDoesNotWrap(t *testing.T) {
	s := Schedule{Entries: []Entry{{DayOfWeek: parse.Saturday, Start: TimeText("00:05"), End: TimeText("01:00")}}}
	assert.True(t, IsWithinWindow(s, Query{Now: at(parse.Saturday, 0, 0), BufferMinutes: 10}))
	assert.False(t, IsWithinWindow(s, Query{Now: at(parse.Saturday, 23, 58), BufferMinutes: 10}))
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestMatcher_Eligible(t *testing.T) {
	// 2024-09-02 is a Monday.
	now := time.Date(2024, 9, 2, 7, 22, 0, 0, time.UTC)
	m := NewMatcher(fixedClock(now), 10)

	s := Schedule{Entries: []Entry{{DayOfWeek: parse.Monday, Start: TimeText("07:30"), End: TimeText("10:30")}}}
	assert.True(t, m.Eligible(s))
	assert.Equal(t, at(parse.Monday, 7, 22), m.Query().Now)

	strict := NewMatcher(fixedClock(now), -5)
	assert.Equal(t, 0, strict.BufferMinutes())
	assert.False(t, strict.Eligible(s))
}

func TestEntry_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		expected Window
	}{
		{
			name:     "mobile shape with clock objects",
			payload:  `{"dayOfWeek":1,"timeStart":{"hour":7,"minute":30,"second":0,"nano":0},"timeEnd":{"hour":10,"minute":30,"second":0,"nano":0},"scheduleType":"LEC","room":"203"}`,
			expected: Window{Day: parse.Monday, Start: parse.TimeOfDay{Hour: 7, Minute: 30}, End: parse.TimeOfDay{Hour: 10, Minute: 30}, Room: "203", Kind: "LEC"},
		},
		{
			name:     "web shape with enum day name",
			payload:  `{"dayOfWeek":"WEDNESDAY","timeStart":"13:00:00","timeEnd":"14:30:00","scheduleType":"LAB","room":"Lab 1"}`,
			expected: Window{Day: parse.Wednesday, Start: parse.TimeOfDay{Hour: 13}, End: parse.TimeOfDay{Hour: 14, Minute: 30}, Room: "Lab 1", Kind: "LAB"},
		},
		{
			name:     "display shape with day and AM/PM",
			payload:  `{"day":"Fri","startTime":"9:00 AM","endTime":"10:00 AM","kind":"LEC"}`,
			expected: Window{Day: parse.Friday, Start: parse.TimeOfDay{Hour: 9}, End: parse.TimeOfDay{Hour: 10}, Kind: "LEC"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var e Entry
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &e))
			w, err := e.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, w)
		})
	}
}

func TestEntry_UnmarshalJSONRejectsBadTimes(t *testing.T) {
	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`{"dayOfWeek":1,"timeStart":[1,2]}`), &e))
}

func TestFormatLegacy(t *testing.T) {
	windows := []Window{
		{Day: parse.Monday, Start: parse.TimeOfDay{Hour: 7, Minute: 30}, End: parse.TimeOfDay{Hour: 10, Minute: 30}, Room: "Room 203", Kind: "LEC"},
		{Day: parse.Wednesday, Start: parse.TimeOfDay{Hour: 13}, End: parse.TimeOfDay{Hour: 14, Minute: 30}, Room: "Lab 1", Kind: "LAB"},
	}
	formatted := FormatLegacy(windows)
	assert.Equal(t, "Mon 7:30AM-10:30AM | Room 203 (LEC), Wed 1:00PM-2:30PM | Lab 1 (LAB)", formatted)

	// A formatted string must be matched the same way as the entries it came from.
	q := Query{Now: at(parse.Wednesday, 12, 50), BufferMinutes: 10}
	assert.True(t, IsWithinWindow(Schedule{Legacy: formatted}, q))
}
