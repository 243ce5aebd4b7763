package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

const sessionColumns = "id, schedule_id, educator_id, educator_name, exam_id, exam_name, exam_date, exam_start_time, exam_end_time, session_start_time, session_end_time, room_id, room_name, room_kind, student_count, session_number, is_main_invigilator, notes"

type sessionRow struct {
	ScheduleID string `db:"schedule_id"`
	models.Session
}

// scheduleRow carries the settings snapshot as a JSONB column alongside the
// schedule's scalar fields.
type scheduleRow struct {
	models.Schedule
	SettingsJSON types.JSONText `db:"settings"`
}

func (r scheduleRow) schedule() (models.Schedule, error) {
	schedule := r.Schedule
	if len(r.SettingsJSON) > 0 {
		if err := json.Unmarshal(r.SettingsJSON, &schedule.Settings); err != nil {
			return models.Schedule{}, fmt.Errorf("decode schedule settings: %w", err)
		}
	}
	return schedule, nil
}

// ScheduleRepository manages persisted invigilation schedules and their
// sessions.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create stores a schedule and all of its sessions in one transaction.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save schedule: %w", err)
	}
	defer tx.Rollback()

	settingsJSON, err := json.Marshal(schedule.Settings)
	if err != nil {
		return fmt.Errorf("encode schedule settings: %w", err)
	}
	row := scheduleRow{Schedule: *schedule, SettingsJSON: settingsJSON}

	const scheduleQuery = `INSERT INTO schedules (id, name, start_date, end_date, settings, created_at, updated_at)
		VALUES (:id, :name, :start_date, :end_date, :settings, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, scheduleQuery, row); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	const sessionQuery = `INSERT INTO sessions (id, schedule_id, educator_id, educator_name, exam_id, exam_name, exam_date, exam_start_time, exam_end_time, session_start_time, session_end_time, room_id, room_name, room_kind, student_count, session_number, is_main_invigilator, notes)
		VALUES (:id, :schedule_id, :educator_id, :educator_name, :exam_id, :exam_name, :exam_date, :exam_start_time, :exam_end_time, :session_start_time, :session_end_time, :room_id, :room_name, :room_kind, :student_count, :session_number, :is_main_invigilator, :notes)`
	for _, session := range schedule.Sessions {
		row := sessionRow{ScheduleID: schedule.ID, Session: session}
		if _, err := tx.NamedExecContext(ctx, sessionQuery, row); err != nil {
			return fmt.Errorf("create schedule session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save schedule: %w", err)
	}
	return nil
}

// FindByID fetches a schedule and its sessions.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, name, start_date, end_date, settings, created_at, updated_at FROM schedules WHERE id = $1`
	var row scheduleRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	schedule, err := row.schedule()
	if err != nil {
		return nil, err
	}

	sessions, err := r.ListSessions(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.Sessions = sessions
	return &schedule, nil
}

// List returns schedules newest first along with total count.
func (r *ScheduleRepository) List(ctx context.Context, page, pageSize int) ([]models.Schedule, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT id, name, start_date, end_date, settings, created_at, updated_at FROM schedules ORDER BY created_at DESC LIMIT %d OFFSET %d", pageSize, offset)
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}
	schedules := make([]models.Schedule, 0, len(rows))
	for _, row := range rows {
		schedule, err := row.schedule()
		if err != nil {
			return nil, 0, err
		}
		schedules = append(schedules, schedule)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM schedules"); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// ListSessions fetches a schedule's sessions in duty order.
func (r *ScheduleRepository) ListSessions(ctx context.Context, scheduleID string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE schedule_id = $1 ORDER BY exam_date ASC, session_start_time ASC, room_name ASC, session_number ASC", sessionColumns)
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule sessions: %w", err)
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.Session)
	}
	return sessions, nil
}

// ListSessionsByEducator fetches one educator's sessions across every saved
// schedule, in duty order.
func (r *ScheduleRepository) ListSessionsByEducator(ctx context.Context, educatorID string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE educator_id = $1 ORDER BY exam_date ASC, session_start_time ASC", sessionColumns)
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, educatorID); err != nil {
		return nil, fmt.Errorf("list educator sessions: %w", err)
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.Session)
	}
	return sessions, nil
}

// ListSessionsByEducatorOnDate fetches one educator's sessions on a date
// across every saved schedule, used for substitution clash checks.
func (r *ScheduleRepository) ListSessionsByEducatorOnDate(ctx context.Context, educatorID, date string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE educator_id = $1 AND exam_date = $2 ORDER BY session_start_time ASC", sessionColumns)
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, educatorID, date); err != nil {
		return nil, fmt.Errorf("list educator sessions on date: %w", err)
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.Session)
	}
	return sessions, nil
}

// FindSession fetches a single persisted session.
func (r *ScheduleRepository) FindSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, sessionID); err != nil {
		return nil, err
	}
	return &row.Session, nil
}

// SessionScheduleID returns the schedule a session belongs to.
func (r *ScheduleRepository) SessionScheduleID(ctx context.Context, sessionID string) (string, error) {
	var scheduleID string
	if err := r.db.GetContext(ctx, &scheduleID, `SELECT schedule_id FROM sessions WHERE id = $1`, sessionID); err != nil {
		return "", err
	}
	return scheduleID, nil
}

// ReassignSession moves a session to a different educator, recording the
// substitution in the notes column.
func (r *ScheduleRepository) ReassignSession(ctx context.Context, sessionID, educatorID, educatorName string, notes *string) error {
	const query = `UPDATE sessions SET educator_id = $2, educator_name = $3, notes = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID, educatorID, educatorName, notes); err != nil {
		return fmt.Errorf("reassign session: %w", err)
	}
	return nil
}

// Delete removes a schedule and its sessions.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete schedule: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete schedule: %w", err)
	}
	return nil
}
