package store

import (
	"errors"

	"spot-attendance-backend/internal/model"
	"spot-attendance-backend/internal/seat"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNotEnrolled       = errors.New("student is not enrolled in this section")
	ErrSeatTaken         = errors.New("seat position is already taken")
	ErrOutOfGrid         = errors.New("seat position is outside the section grid")
	ErrNotSectionTeacher = errors.New("teacher is not assigned to this section")
)

// SeatRequest asks for a student to be placed at a position.
type SeatRequest struct {
	SectionID int64
	StudentID int64
	Position  seat.Coordinate
}

// OverrideRequest is a SeatRequest issued by the section's teacher.
type OverrideRequest struct {
	SeatRequest
	TeacherID int64
}

// SeatChange is the outcome of a teacher override. EvictedStudentID is set
// when another student had to give up the position.
type SeatChange struct {
	Seat             model.Seat
	EvictedStudentID *int64
}

// toPlanSeat converts a persisted seat into the seat plan representation.
func toPlanSeat(m model.Seat) seat.Seat {
	studentID := m.StudentID
	return seat.Seat{
		ID:         m.ID,
		SectionID:  m.SectionID,
		Row:        m.Row,
		Column:     m.Column,
		OccupantID: &studentID,
	}
}

func toPlanSeats(ms []model.Seat) []seat.Seat {
	out := make([]seat.Seat, 0, len(ms))
	for _, m := range ms {
		out = append(out, toPlanSeat(m))
	}
	return out
}

func inGrid(section model.Section, pos seat.Coordinate) bool {
	return pos.Row >= 0 && pos.Row < section.SeatRows &&
		pos.Column >= 0 && pos.Column < section.SeatColumns
}
