package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func educatorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "department", "max_sessions_per_day", "preferred_times", "unavailable_dates", "created_at", "updated_at"}).
		AddRow("e1", "Alice Mokoena", "alice@example.com", nil, "Mathematics", 3, pq.StringArray{"09:00"}, pq.StringArray{}, time.Now(), time.Now())
}

func TestEducatorRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEducatorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + educatorColumns + " FROM educators WHERE 1=1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(educatorRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM educators WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.EducatorFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, pq.StringArray{"09:00"}, list[0].PreferredTimes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEducatorRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEducatorRepository(db)

	mock.ExpectQuery("SELECT .+ FROM educators WHERE 1=1 AND").
		WithArgs("%alice%").
		WillReturnRows(educatorRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%alice%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.EducatorFilter{Search: "Alice"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEducatorRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEducatorRepository(db)

	mock.ExpectExec("INSERT INTO educators").
		WillReturnResult(sqlmock.NewResult(1, 1))

	educator := &models.Educator{FullName: "Alice Mokoena"}
	require.NoError(t, repo.Create(context.Background(), educator))
	assert.NotEmpty(t, educator.ID)
	assert.False(t, educator.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEducatorRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEducatorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + educatorColumns + " FROM educators WHERE id = $1")).
		WithArgs("e1").
		WillReturnRows(educatorRows())

	educator, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Mokoena", educator.FullName)
	require.NotNil(t, educator.MaxSessionsPerDay)
	assert.Equal(t, 3, *educator.MaxSessionsPerDay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEducatorRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEducatorRepository(db)

	mock.ExpectExec("DELETE FROM educators").
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "e1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
