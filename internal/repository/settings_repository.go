package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

// SettingsRepository manages the single persisted settings row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings, falling back to defaults when no row has
// been saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	const query = `SELECT session_duration, break_between_sessions, max_sessions_per_day, max_consecutive_sessions, require_break_after_run, hall_invigilator_ratio, classroom_invigilator_ratio FROM invigilation_settings WHERE id = 1`
	var settings models.Settings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// Save upserts the settings row.
func (r *SettingsRepository) Save(ctx context.Context, settings models.Settings) error {
	const query = `INSERT INTO invigilation_settings (id, session_duration, break_between_sessions, max_sessions_per_day, max_consecutive_sessions, require_break_after_run, hall_invigilator_ratio, classroom_invigilator_ratio)
		VALUES (1, :session_duration, :break_between_sessions, :max_sessions_per_day, :max_consecutive_sessions, :require_break_after_run, :hall_invigilator_ratio, :classroom_invigilator_ratio)
		ON CONFLICT (id) DO UPDATE SET
			session_duration = EXCLUDED.session_duration,
			break_between_sessions = EXCLUDED.break_between_sessions,
			max_sessions_per_day = EXCLUDED.max_sessions_per_day,
			max_consecutive_sessions = EXCLUDED.max_consecutive_sessions,
			require_break_after_run = EXCLUDED.require_break_after_run,
			hall_invigilator_ratio = EXCLUDED.hall_invigilator_ratio,
			classroom_invigilator_ratio = EXCLUDED.classroom_invigilator_ratio`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
