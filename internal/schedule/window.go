package schedule

import (
	"log"
	"time"

	"spot-attendance-backend/internal/parse"
)

// DefaultBufferMinutes is the grace period before class start during which check-in is accepted.
const DefaultBufferMinutes = 10

// Moment is "now" reduced to what eligibility cares about.
type Moment struct {
	Day  parse.Weekday
	Time parse.TimeOfDay
}

// MomentOf converts t using its own location.
func MomentOf(t time.Time) Moment {
	return Moment{Day: parse.WeekdayOf(t), Time: parse.ClockOf(t)}
}

// Query is a single eligibility question.
type Query struct {
	Now           Moment
	BufferMinutes int
}

// Schedule is what a section knows about its meetings: structured entries,
// a legacy display string, or both.
type Schedule struct {
	Entries []Entry
	Legacy  string
}

// IsWithinWindow reports whether q.Now falls inside the buffered window of any
// entry, falling back to the legacy string. Malformed entries are skipped.
func IsWithinWindow(s Schedule, q Query) bool {
	for i, entry := range s.Entries {
		w, err := entry.Resolve()
		if err != nil {
			log.Printf("Warning: skipping schedule entry %d: %v", i, err)
			continue
		}
		if w.Contains(q.Now, q.BufferMinutes) {
			return true
		}
	}

	if s.Legacy != "" {
		return legacyContains(s.Legacy, q)
	}
	return false
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in c.Location (local time when nil).
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Matcher answers eligibility questions against a clock.
type Matcher struct {
	clock  Clock
	buffer int
}

// NewMatcher creates a Matcher. A negative buffer is treated as zero.
func NewMatcher(clock Clock, bufferMinutes int) *Matcher {
	if bufferMinutes < 0 {
		bufferMinutes = 0
	}
	return &Matcher{clock: clock, buffer: bufferMinutes}
}

// Now returns the matcher's current time.
func (m *Matcher) Now() time.Time {
	return m.clock.Now()
}

// Query builds a Query for the current moment.
func (m *Matcher) Query() Query {
	return Query{Now: MomentOf(m.clock.Now()), BufferMinutes: m.buffer}
}

// BufferMinutes returns the configured grace period.
func (m *Matcher) BufferMinutes() int {
	return m.buffer
}

// Eligible reports whether a check-in right now is inside one of the schedule's windows.
func (m *Matcher) Eligible(s Schedule) bool {
	return IsWithinWindow(s, m.Query())
}
