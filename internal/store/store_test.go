package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"spot-attendance-backend/internal/model"
	"spot-attendance-backend/internal/parse"
	"spot-attendance-backend/internal/schedule"
	"spot-attendance-backend/internal/seat"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return gormDB, mock
}

var sectionColumns = []string{"id", "course_code", "name", "teacher_id", "schedule_text", "seat_rows", "seat_columns"}

func expectSection(mock sqlmock.Sqlmock, id int64, teacherID any) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sections" WHERE "sections"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows(sectionColumns).
			AddRow(id, "CS101", "BSIT-2A", teacherID, "", 7, 4))
}

func expectEnrolled(mock sqlmock.Sqlmock, enrolled bool) {
	n := 0
	if enrolled {
		n = 1
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "enrollments" WHERE section_id = $1 AND student_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func expectPosition(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "seats" WHERE section_id = $1 AND seat_row = $2 AND seat_column = $3`)).
		WillReturnRows(rows)
}

func seatRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "section_id", "student_id", "seat_row", "seat_column"})
}

func TestGormStore_GetSection(t *testing.T) {
	t.Run("loads schedules", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		expectSection(mock, 7, nil)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "class_schedules" WHERE "class_schedules"."section_id" = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "section_id", "day_of_week", "time_start", "time_end", "room", "schedule_type"}).
				AddRow(1, 7, 1, "07:30", "10:30", "203", "LEC"))

		section, err := s.GetSection(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "CS101", section.CourseCode)
		require.Len(t, section.Schedules, 1)
		assert.Equal(t, "07:30", section.Schedules[0].TimeStart)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing section", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sections"`)).
			WillReturnRows(sqlmock.NewRows(sectionColumns))

		_, err := s.GetSection(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_PickSeat(t *testing.T) {
	req := SeatRequest{SectionID: 7, StudentID: 42, Position: seat.Coordinate{Row: 2, Column: 1}}

	testCases := []struct {
		name             string
		req              SeatRequest
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
		expectedID       int64
	}{
		{
			name: "Free position, previous seat released",
			req:  req,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectSection(mock, 7, nil)
				expectEnrolled(mock, true)
				expectPosition(mock, seatRows())
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "seats" WHERE section_id = $1 AND student_id = $2`)).
					WithArgs(7, 42).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "seats"`)).
					WithArgs(7, 42, 2, 1, Any{}, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
				mock.ExpectCommit()
			},
			expectedID: 11,
		},
		{
			name: "Position held by another student",
			req:  req,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectSection(mock, 7, nil)
				expectEnrolled(mock, true)
				expectPosition(mock, seatRows().AddRow(5, 7, 43, 2, 1))
				mock.ExpectRollback()
			},
			expectedErr: ErrSeatTaken,
		},
		{
			name: "Position taken by a concurrent transaction",
			req:  req,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectSection(mock, 7, nil)
				expectEnrolled(mock, true)
				expectPosition(mock, seatRows())
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "seats" WHERE section_id = $1 AND student_id = $2`)).
					WithArgs(7, 42).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "seats"`)).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_seat_position"})
				mock.ExpectRollback()
			},
			expectedErr: ErrSeatTaken,
		},
		{
			name: "Position already held by the requester",
			req:  req,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectSection(mock, 7, nil)
				expectEnrolled(mock, true)
				expectPosition(mock, seatRows().AddRow(5, 7, 42, 2, 1))
				mock.ExpectCommit()
			},
			expectedID: 5,
		},
		{
			name: "Student not enrolled",
			req:  req,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectSection(mock, 7, nil)
				expectEnrolled(mock, false)
				mock.ExpectRollback()
			},
			expectedErr: ErrNotEnrolled,
		},
		{
			name: "Position outside the grid",
			req:  SeatRequest{SectionID: 7, StudentID: 42, Position: seat.Coordinate{Row: 7, Column: 0}},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectSection(mock, 7, nil)
				expectEnrolled(mock, true)
				mock.ExpectRollback()
			},
			expectedErr: ErrOutOfGrid,
		},
		{
			name: "Unknown section",
			req:  req,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sections"`)).
					WillReturnRows(sqlmock.NewRows(sectionColumns))
				mock.ExpectRollback()
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			picked, err := s.PickSeat(context.Background(), tc.req)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedID, picked.ID)
				assert.Equal(t, tc.req.Position, seat.Coordinate{Row: picked.Row, Column: picked.Column})
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_OverrideSeat(t *testing.T) {
	req := OverrideRequest{
		SeatRequest: SeatRequest{SectionID: 7, StudentID: 42, Position: seat.Coordinate{Row: 0, Column: 0}},
		TeacherID:   900,
	}

	t.Run("evicts the current occupant", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		expectSection(mock, 7, 900)
		expectEnrolled(mock, true)
		expectPosition(mock, seatRows().AddRow(3, 7, 43, 0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "seats" WHERE "seats"."id" = $1`)).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "seats" WHERE section_id = $1 AND student_id = $2`)).
			WithArgs(7, 42).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "seats"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
		mock.ExpectCommit()

		change, err := s.OverrideSeat(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int64(12), change.Seat.ID)
		require.NotNil(t, change.EvictedStudentID)
		assert.Equal(t, int64(43), *change.EvictedStudentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a teacher of another section", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		expectSection(mock, 7, 901)
		expectEnrolled(mock, true)
		mock.ExpectRollback()

		_, err := s.OverrideSeat(context.Background(), req)
		assert.ErrorIs(t, err, ErrNotSectionTeacher)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a section without a teacher", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		expectSection(mock, 7, nil)
		expectEnrolled(mock, true)
		mock.ExpectRollback()

		_, err := s.OverrideSeat(context.Background(), req)
		assert.ErrorIs(t, err, ErrNotSectionTeacher)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_StudentSeat(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "seats" WHERE section_id = $1 AND student_id = $2`)).
		WillReturnRows(seatRows().AddRow(8, 7, 42, 1, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "seats" WHERE section_id = $1 AND student_id = $2`)).
		WillReturnRows(seatRows())

	got, err := s.StudentSeat(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.Equal(t, seat.Coordinate{Row: 1, Column: 3}, got.Coordinate())
	assert.True(t, got.OccupiedBy(42))

	_, err = s.StudentSeat(context.Background(), 7, 43)
	assert.ErrorIs(t, err, seat.ErrNoSeat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Listings(t *testing.T) {
	t.Run("enrolled listing", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`JOIN enrollments e ON e.section_id = seats.section_id AND e.student_id = seats.student_id`)).
			WillReturnRows(seatRows().AddRow(1, 7, 42, 0, 0).AddRow(2, 7, 43, 0, 1))

		seats, err := s.ListAll(context.Background(), 7)
		require.NoError(t, err)
		require.Len(t, seats, 2)
		assert.Equal(t, "W1", seats[0].Coordinate().DisplayID())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure is wrapped as a lookup error", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "seats" WHERE section_id = $1`)).
			WillReturnError(errors.New("permission denied for table seats"))

		_, err := s.ListSection(context.Background(), 7)
		var le *seat.LookupError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, seat.FailurePermission, seat.Classify(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_RecordAttendance(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)
	at := time.Date(2024, 5, 13, 7, 25, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "attendances"`)).
		WithArgs(7, 42, at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	record, err := s.RecordAttendance(context.Background(), 7, 42, at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleOf(t *testing.T) {
	section := model.Section{
		ScheduleText: "Wed 7:30AM-10:30AM | Room 105 (LAB)",
		Schedules: []model.ClassSchedule{
			{DayOfWeek: 1, TimeStart: "07:30:00", TimeEnd: "10:30:00", Room: "203", ScheduleType: "LEC"},
		},
	}

	s := ScheduleOf(section)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, parse.Monday, s.Entries[0].DayOfWeek)

	monday := schedule.Moment{Day: parse.Monday, Time: parse.TimeOfDay{Hour: 7, Minute: 20}}
	wednesday := schedule.Moment{Day: parse.Wednesday, Time: parse.TimeOfDay{Hour: 7, Minute: 25}}
	assert.True(t, schedule.IsWithinWindow(s, schedule.Query{Now: monday, BufferMinutes: 10}))
	assert.True(t, schedule.IsWithinWindow(s, schedule.Query{Now: wednesday, BufferMinutes: 10}))
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
