package seat

// Seat is one position of a section's seat plan. A nil OccupantID means the
// seat is free. Negative IDs mark placeholders produced by the Reconstructor.
type Seat struct {
	ID         int64  `json:"id"`
	SectionID  int64  `json:"sectionId"`
	Row        int    `json:"row"`
	Column     int    `json:"column"`
	OccupantID *int64 `json:"occupantId"`
}

// Coordinate returns the seat position.
func (s Seat) Coordinate() Coordinate {
	return Coordinate{Row: s.Row, Column: s.Column}
}

// Occupied reports whether a student sits here.
func (s Seat) Occupied() bool {
	return s.OccupantID != nil
}

// Placeholder reports whether the seat is shape-only fallback data.
func (s Seat) Placeholder() bool {
	return s.ID < 0
}

// OccupiedBy reports whether studentID sits here.
func (s Seat) OccupiedBy(studentID int64) bool {
	return s.OccupantID != nil && *s.OccupantID == studentID
}

// Snapshot is the seat plan of one section at one point in time.
type Snapshot struct {
	SectionID int64  `json:"sectionId"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	Seats     []Seat `json:"seats"`
}

// At returns the first seat at (row, column). When several records share a
// position, an occupied one is preferred.
func (s Snapshot) At(row, column int) (Seat, bool) {
	var (
		found Seat
		ok    bool
	)
	for _, seat := range s.Seats {
		if seat.Row != row || seat.Column != column {
			continue
		}
		if seat.Occupied() {
			return seat, true
		}
		if !ok {
			found, ok = seat, true
		}
	}
	return found, ok
}

// IsOccupied reports whether some seat at (row, column) has an occupant.
func (s Snapshot) IsOccupied(row, column int) bool {
	seat, ok := s.At(row, column)
	return ok && seat.Occupied()
}

// IsOwnSeat reports whether studentID occupies (row, column).
func (s Snapshot) IsOwnSeat(row, column int, studentID int64) bool {
	for _, seat := range s.Seats {
		if seat.Row == row && seat.Column == column && seat.OccupiedBy(studentID) {
			return true
		}
	}
	return false
}

// SeatOf returns the seat held by studentID, if any.
func (s Snapshot) SeatOf(studentID int64) (Seat, bool) {
	for _, seat := range s.Seats {
		if seat.OccupiedBy(studentID) {
			return seat, true
		}
	}
	return Seat{}, false
}

// OccupiedCount returns the number of occupied seats.
func (s Snapshot) OccupiedCount() int {
	n := 0
	for _, seat := range s.Seats {
		if seat.Occupied() {
			n++
		}
	}
	return n
}
