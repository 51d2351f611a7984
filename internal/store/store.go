package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spot-attendance-backend/internal/model"
	"spot-attendance-backend/internal/parse"
	"spot-attendance-backend/internal/schedule"
	"spot-attendance-backend/internal/seat"
)

// Store defines the interface for all database operations. It doubles as a
// seat.Source when seat plans are served from the local database.
type Store interface {
	seat.Source

	DB() *gorm.DB
	UpsertSection(ctx context.Context, section *model.Section) error
	GetSection(ctx context.Context, sectionID int64) (model.Section, error)
	Enroll(ctx context.Context, sectionID, studentID int64) error
	IsEnrolled(ctx context.Context, sectionID, studentID int64) (bool, error)
	EnrollmentCount(ctx context.Context, sectionID int64) (int, error)
	PickSeat(ctx context.Context, req SeatRequest) (model.Seat, error)
	OverrideSeat(ctx context.Context, req OverrideRequest) (SeatChange, error)
	RecordAttendance(ctx context.Context, sectionID, studentID int64, at time.Time) (model.Attendance, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertSection creates or replaces a section together with its weekly schedule.
func (s *gormStore) UpsertSection(ctx context.Context, section *model.Section) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		schedules := section.Schedules
		section.Schedules = nil

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"course_code", "course_name", "name", "teacher_id", "schedule_text", "seat_rows", "seat_columns", "updated_at"}),
		}).Create(section).Error; err != nil {
			return fmt.Errorf("failed to upsert section %d: %w", section.ID, err)
		}

		if err := tx.Where("section_id = ?", section.ID).Delete(&model.ClassSchedule{}).Error; err != nil {
			return fmt.Errorf("failed to clear schedules of section %d: %w", section.ID, err)
		}
		for i := range schedules {
			schedules[i].ID = 0
			schedules[i].SectionID = section.ID
		}
		if len(schedules) > 0 {
			if err := tx.Create(&schedules).Error; err != nil {
				return fmt.Errorf("failed to create schedules of section %d: %w", section.ID, err)
			}
		}
		section.Schedules = schedules
		return nil
	})
}

// GetSection loads a section with its schedule entries.
func (s *gormStore) GetSection(ctx context.Context, sectionID int64) (model.Section, error) {
	var section model.Section
	err := s.db.WithContext(ctx).Preload("Schedules").First(&section, sectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Section{}, fmt.Errorf("section %d: %w", sectionID, ErrNotFound)
	}
	if err != nil {
		return model.Section{}, fmt.Errorf("failed to load section %d: %w", sectionID, err)
	}
	return section, nil
}

// Enroll adds the student to the section; enrolling twice is a no-op.
func (s *gormStore) Enroll(ctx context.Context, sectionID, studentID int64) error {
	enrollment := model.Enrollment{SectionID: sectionID, StudentID: studentID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment).Error; err != nil {
		return fmt.Errorf("failed to enroll student %d in section %d: %w", studentID, sectionID, err)
	}
	return nil
}

func (s *gormStore) IsEnrolled(ctx context.Context, sectionID, studentID int64) (bool, error) {
	return isEnrolled(s.db.WithContext(ctx), sectionID, studentID)
}

func (s *gormStore) EnrollmentCount(ctx context.Context, sectionID int64) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Enrollment{}).Where("section_id = ?", sectionID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count enrollments of section %d: %w", sectionID, err)
	}
	return int(n), nil
}

// PickSeat places a student at a free position, giving up their previous seat.
func (s *gormStore) PickSeat(ctx context.Context, req SeatRequest) (model.Seat, error) {
	var picked model.Seat
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireSeatable(tx, req); err != nil {
			return err
		}

		current, found, err := seatAt(tx, req.SectionID, req.Position)
		if err != nil {
			return err
		}
		if found {
			if current.StudentID != req.StudentID {
				return ErrSeatTaken
			}
			picked = current
			return nil
		}

		picked, err = moveStudent(tx, req)
		return err
	})
	return picked, err
}

// OverrideSeat lets the section's teacher place a student anywhere in the grid,
// evicting whoever sat there.
func (s *gormStore) OverrideSeat(ctx context.Context, req OverrideRequest) (SeatChange, error) {
	var change SeatChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		section, err := requireSeatable(tx, req.SeatRequest)
		if err != nil {
			return err
		}
		if section.TeacherID == nil || *section.TeacherID != req.TeacherID {
			return ErrNotSectionTeacher
		}

		current, found, err := seatAt(tx, req.SectionID, req.Position)
		if err != nil {
			return err
		}
		if found {
			if current.StudentID == req.StudentID {
				change.Seat = current
				return nil
			}
			if err := tx.Delete(&current).Error; err != nil {
				return fmt.Errorf("failed to evict student %d: %w", current.StudentID, err)
			}
			evicted := current.StudentID
			change.EvictedStudentID = &evicted
			log.Printf("Teacher %d evicted student %d from seat %d in section %d", req.TeacherID, evicted, current.ID, req.SectionID)
		}

		change.Seat, err = moveStudent(tx, req.SeatRequest)
		return err
	})
	return change, err
}

// RecordAttendance stores a check-in.
func (s *gormStore) RecordAttendance(ctx context.Context, sectionID, studentID int64, at time.Time) (model.Attendance, error) {
	record := model.Attendance{SectionID: sectionID, StudentID: studentID, CheckedInAt: at}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return model.Attendance{}, fmt.Errorf("failed to record attendance for student %d: %w", studentID, err)
	}
	return record, nil
}

// ListAll returns the seats of currently enrolled students.
func (s *gormStore) ListAll(ctx context.Context, sectionID int64) ([]seat.Seat, error) {
	var seats []model.Seat
	err := s.db.WithContext(ctx).
		Joins("JOIN enrollments e ON e.section_id = seats.section_id AND e.student_id = seats.student_id").
		Where("seats.section_id = ?", sectionID).
		Order("seats.seat_row, seats.seat_column").
		Find(&seats).Error
	if err != nil {
		return nil, &seat.LookupError{Op: "list enrolled seats", Err: err}
	}
	return toPlanSeats(seats), nil
}

// ListSection returns every seat row of the section.
func (s *gormStore) ListSection(ctx context.Context, sectionID int64) ([]seat.Seat, error) {
	var seats []model.Seat
	if err := s.db.WithContext(ctx).Where("section_id = ?", sectionID).Order("seat_row, seat_column").Find(&seats).Error; err != nil {
		return nil, &seat.LookupError{Op: "list section seats", Err: err}
	}
	return toPlanSeats(seats), nil
}

// StudentSeat returns the student's seat or seat.ErrNoSeat.
func (s *gormStore) StudentSeat(ctx context.Context, sectionID, studentID int64) (seat.Seat, error) {
	var m model.Seat
	err := s.db.WithContext(ctx).Where("section_id = ? AND student_id = ?", sectionID, studentID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return seat.Seat{}, fmt.Errorf("student %d in section %d: %w", studentID, sectionID, seat.ErrNoSeat)
	}
	if err != nil {
		return seat.Seat{}, &seat.LookupError{Op: "student seat", Err: err}
	}
	return toPlanSeat(m), nil
}

// ScheduleOf turns a section's stored schedule into the matcher's input.
func ScheduleOf(section model.Section) schedule.Schedule {
	entries := make([]schedule.Entry, 0, len(section.Schedules))
	for _, cs := range section.Schedules {
		entries = append(entries, schedule.Entry{
			DayOfWeek: parse.Weekday(cs.DayOfWeek),
			Start:     schedule.TimeText(cs.TimeStart),
			End:       schedule.TimeText(cs.TimeEnd),
			Room:      cs.Room,
			Kind:      cs.ScheduleType,
		})
	}
	return schedule.Schedule{Entries: entries, Legacy: section.ScheduleText}
}

// --- Helper functions ---

func requireSeatable(tx *gorm.DB, req SeatRequest) (model.Section, error) {
	var section model.Section
	if err := tx.First(&section, req.SectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Section{}, fmt.Errorf("section %d: %w", req.SectionID, ErrNotFound)
		}
		return model.Section{}, fmt.Errorf("failed to load section %d: %w", req.SectionID, err)
	}

	enrolled, err := isEnrolled(tx, req.SectionID, req.StudentID)
	if err != nil {
		return model.Section{}, err
	}
	if !enrolled {
		return model.Section{}, ErrNotEnrolled
	}
	if !inGrid(section, req.Position) {
		return model.Section{}, fmt.Errorf("%w: %s", ErrOutOfGrid, req.Position.DisplayID())
	}
	return section, nil
}

func isEnrolled(db *gorm.DB, sectionID, studentID int64) (bool, error) {
	var n int64
	err := db.Model(&model.Enrollment{}).
		Where("section_id = ? AND student_id = ?", sectionID, studentID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to verify enrollment of student %d: %w", studentID, err)
	}
	return n > 0, nil
}

func seatAt(tx *gorm.DB, sectionID int64, pos seat.Coordinate) (model.Seat, bool, error) {
	var m model.Seat
	err := tx.Where("section_id = ? AND seat_row = ? AND seat_column = ?", sectionID, pos.Row, pos.Column).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Seat{}, false, nil
	}
	if err != nil {
		return model.Seat{}, false, fmt.Errorf("failed to look up position %s: %w", pos.DisplayID(), err)
	}
	return m, true, nil
}

func moveStudent(tx *gorm.DB, req SeatRequest) (model.Seat, error) {
	if err := tx.Where("section_id = ? AND student_id = ?", req.SectionID, req.StudentID).Delete(&model.Seat{}).Error; err != nil {
		return model.Seat{}, fmt.Errorf("failed to release previous seat of student %d: %w", req.StudentID, err)
	}
	created := model.Seat{
		SectionID: req.SectionID,
		StudentID: req.StudentID,
		Row:       req.Position.Row,
		Column:    req.Position.Column,
	}
	if err := tx.Create(&created).Error; err != nil {
		// Another transaction took the position after seatAt saw it free.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Seat{}, ErrSeatTaken
		}
		return model.Seat{}, fmt.Errorf("failed to create seat for student %d: %w", req.StudentID, err)
	}
	return created, nil
}
