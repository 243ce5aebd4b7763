package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

func scheduleSessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "schedule_id", "educator_id", "educator_name", "exam_id", "exam_name", "exam_date", "exam_start_time", "exam_end_time", "session_start_time", "session_end_time", "room_id", "room_name", "room_kind", "student_count", "session_number", "is_main_invigilator", "notes"}).
		AddRow("s1", "sch1", "e1", "Alice Mokoena", "x1", "Biology", "2026-06-01", "09:00", "10:00", "09:00", "09:30", "r1", "Main Hall", "hall", 40, 1, true, nil)
}

func TestScheduleRepositoryCreateWrapsInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	schedule := &models.Schedule{
		Name:      "June exams",
		StartDate: "2026-06-01",
		EndDate:   "2026-06-05",
		Sessions: []models.Session{{
			ID: "s1", EducatorID: "e1", EducatorName: "Alice Mokoena",
			ExamID: "x1", ExamName: "Biology", ExamDate: "2026-06-01",
			ExamStartTime: "09:00", ExamEndTime: "10:00",
			SessionStartTime: "09:00", SessionEndTime: "09:30",
			RoomID: "r1", RoomName: "Main Hall", RoomKind: models.RoomKindHall,
			StudentCount: 40, SessionNumber: 1, IsMainInvigilator: true,
		}},
	}
	require.NoError(t, repo.Create(context.Background(), schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateRollsBackOnSessionError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sessions").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	schedule := &models.Schedule{
		Name:     "June exams",
		Sessions: []models.Session{{ID: "s1"}},
	}
	require.Error(t, repo.Create(context.Background(), schedule))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	settingsJSON := []byte(`{"session_duration":45,"break_between_sessions":15,"max_sessions_per_day":4,"max_consecutive_sessions":3,"require_break_after_run":true,"hall_invigilator_ratio":50,"classroom_invigilator_ratio":30}`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, start_date, end_date, settings, created_at, updated_at FROM schedules WHERE id = $1")).
		WithArgs("sch1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "settings", "created_at", "updated_at"}).
			AddRow("sch1", "June exams", "2026-06-01", "2026-06-05", settingsJSON, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT .+ FROM sessions WHERE schedule_id").
		WithArgs("sch1").
		WillReturnRows(scheduleSessionRows())

	schedule, err := repo.FindByID(context.Background(), "sch1")
	require.NoError(t, err)
	assert.Equal(t, "June exams", schedule.Name)
	assert.Equal(t, 45, schedule.Settings.SessionDuration)
	assert.Equal(t, 3, schedule.Settings.MaxConsecutiveSessions)
	require.Len(t, schedule.Sessions, 1)
	assert.Equal(t, "Alice Mokoena", schedule.Sessions[0].EducatorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReassignSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	notes := "substituted: Alice Mokoena -> Ben Dlamini"
	mock.ExpectExec("UPDATE sessions SET educator_id").
		WithArgs("s1", "e2", "Ben Dlamini", &notes).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.ReassignSession(context.Background(), "s1", "e2", "Ben Dlamini", &notes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM sessions WHERE schedule_id").
		WithArgs("sch1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM schedules WHERE id").
		WithArgs("sch1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "sch1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
