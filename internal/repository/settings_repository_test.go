package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

func TestSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectQuery("SELECT .+ FROM invigilation_settings").
		WillReturnRows(sqlmock.NewRows([]string{"session_duration", "break_between_sessions", "max_sessions_per_day", "max_consecutive_sessions", "require_break_after_run", "hall_invigilator_ratio", "classroom_invigilator_ratio"}).
			AddRow(45, 10, 5, 3, false, 60, 25))

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 45, settings.SessionDuration)
	assert.Equal(t, 3, settings.MaxConsecutiveSessions)
	assert.False(t, settings.RequireBreakAfterRun)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryGetFallsBackToDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectQuery("SELECT .+ FROM invigilation_settings").
		WillReturnError(sql.ErrNoRows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositorySave(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO invigilation_settings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), models.DefaultSettings()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
