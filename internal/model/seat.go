package model

import "time"

// Seat is a student's position in a section's seat plan. A student holds at
// most one seat per section and a position holds at most one student.
type Seat struct {
	ID        int64     `gorm:"primaryKey"`
	SectionID int64     `gorm:"not null;uniqueIndex:idx_seat_position;uniqueIndex:idx_seat_student"`
	StudentID int64     `gorm:"not null;uniqueIndex:idx_seat_student"`
	Row       int       `gorm:"column:seat_row;not null;uniqueIndex:idx_seat_position"`
	Column    int       `gorm:"column:seat_column;not null;uniqueIndex:idx_seat_position"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Section Section `gorm:"constraint:OnDelete:CASCADE"`
}

// Attendance is a successful check-in.
type Attendance struct {
	ID          int64     `gorm:"primaryKey"`
	SectionID   int64     `gorm:"not null;index:idx_attendance_section_time"`
	StudentID   int64     `gorm:"not null;index"`
	CheckedInAt time.Time `gorm:"not null;index:idx_attendance_section_time"`
}
