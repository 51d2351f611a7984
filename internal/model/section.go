package model

import "time"

// Section is a class section students enroll in and sit in.
type Section struct {
	ID         int64  `gorm:"primaryKey"`
	CourseCode string `gorm:"size:32;not null;index"`
	CourseName string `gorm:"size:256"`
	Name       string `gorm:"size:128;not null"`
	TeacherID  *int64 `gorm:"index"`
	// ScheduleText is the legacy free-text schedule, e.g. "Mon 7:30AM-10:30AM | Room 203 (LEC)".
	ScheduleText string `gorm:"size:512"`
	SeatRows     int    `gorm:"not null;default:7"`
	SeatColumns  int    `gorm:"not null;default:4"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Associations
	Schedules []ClassSchedule `gorm:"foreignKey:SectionID"`
}

// ClassSchedule is one weekly meeting of a section. Times are stored as
// upstream sent them and parsed on read.
type ClassSchedule struct {
	ID           int64  `gorm:"primaryKey"`
	SectionID    int64  `gorm:"index;not null"`
	DayOfWeek    int    `gorm:"not null"`
	TimeStart    string `gorm:"size:16;not null"`
	TimeEnd      string `gorm:"size:16;not null"`
	Room         string `gorm:"size:64"`
	ScheduleType string `gorm:"size:16"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Associations
	Section Section `gorm:"constraint:OnDelete:CASCADE"`
}

// Enrollment links a student to a section.
type Enrollment struct {
	ID        int64 `gorm:"primaryKey"`
	SectionID int64 `gorm:"not null;uniqueIndex:idx_enrollment_section_student"`
	StudentID int64 `gorm:"not null;uniqueIndex:idx_enrollment_section_student;index"`
	CreatedAt time.Time
}
