package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

func sessionFixture(id, educatorID, date, start, end string) models.Session {
	return models.Session{
		ID: id, EducatorID: educatorID, EducatorName: "Alice Mokoena",
		ExamDate: date, SessionStartTime: start, SessionEndTime: end,
	}
}

func TestValidateCleanSchedule(t *testing.T) {
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "09:00", "09:30"),
		sessionFixture("s2", "a", "2026-06-01", "11:00", "11:30"),
	}
	educators := []models.Educator{testEducator("a", "Alice Mokoena")}

	conflicts := Validate(sessions, educators, testSettings())
	assert.Empty(t, conflicts)
}

func TestValidateFlagsDailyOverload(t *testing.T) {
	solo := testEducator("a", "Alice Mokoena")
	solo.MaxSessionsPerDay = intPtr(1)
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "09:00", "09:30"),
		sessionFixture("s2", "a", "2026-06-01", "13:00", "13:30"),
	}

	conflicts := Validate(sessions, []models.Educator{solo}, testSettings())
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictOverload, conflicts[0].Kind)
	assert.Equal(t, models.SeverityWarning, conflicts[0].Severity)
	assert.Contains(t, conflicts[0].Message, "exceeding limit of 1")
}

func TestValidateFallsBackToGlobalDailyCap(t *testing.T) {
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "08:00", "08:30"),
		sessionFixture("s2", "a", "2026-06-01", "10:00", "10:30"),
		sessionFixture("s3", "a", "2026-06-01", "12:00", "12:30"),
		sessionFixture("s4", "a", "2026-06-01", "14:00", "14:30"),
		sessionFixture("s5", "a", "2026-06-01", "16:00", "16:30"),
	}
	educators := []models.Educator{testEducator("a", "Alice Mokoena")}

	conflicts := Validate(sessions, educators, testSettings())
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictOverload, conflicts[0].Kind)
	assert.Contains(t, conflicts[0].Message, "5 sessions")
}

func TestValidateFlagsOverlappingPairs(t *testing.T) {
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "09:00", "10:00"),
		sessionFixture("s2", "a", "2026-06-01", "09:30", "10:30"),
	}
	educators := []models.Educator{testEducator("a", "Alice Mokoena")}

	conflicts := Validate(sessions, educators, testSettings())
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictOverlap, conflicts[0].Kind)
	assert.Equal(t, models.SeverityError, conflicts[0].Severity)
	assert.Equal(t, "s1", conflicts[0].SessionID)
}

func TestValidateTouchingSessionsDoNotOverlap(t *testing.T) {
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "09:00", "09:30"),
		sessionFixture("s2", "a", "2026-06-01", "09:30", "10:00"),
	}
	educators := []models.Educator{testEducator("a", "Alice Mokoena")}

	for _, conflict := range Validate(sessions, educators, testSettings()) {
		assert.NotEqual(t, models.ConflictOverlap, conflict.Kind)
	}
}

func TestValidateFlagsConsecutiveRuns(t *testing.T) {
	// Three back-to-back slots give a run of two adjacencies, over the
	// default cap of two only when a fourth joins.
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "08:00", "08:30"),
		sessionFixture("s2", "a", "2026-06-01", "08:30", "09:00"),
		sessionFixture("s3", "a", "2026-06-01", "09:00", "09:30"),
		sessionFixture("s4", "a", "2026-06-01", "09:30", "10:00"),
	}
	solo := testEducator("a", "Alice Mokoena")
	solo.MaxSessionsPerDay = intPtr(10)

	conflicts := Validate(sessions, []models.Educator{solo}, testSettings())
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictConsecutive, conflicts[0].Kind)
	assert.Equal(t, models.SeverityWarning, conflicts[0].Severity)
	assert.Contains(t, conflicts[0].Message, "4 consecutive sessions")
}

func TestValidateConsecutiveCapIsConfigurable(t *testing.T) {
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "08:00", "08:30"),
		sessionFixture("s2", "a", "2026-06-01", "08:30", "09:00"),
		sessionFixture("s3", "a", "2026-06-01", "09:00", "09:30"),
		sessionFixture("s4", "a", "2026-06-01", "09:30", "10:00"),
	}
	solo := testEducator("a", "Alice Mokoena")
	solo.MaxSessionsPerDay = intPtr(10)

	relaxed := testSettings()
	relaxed.MaxConsecutiveSessions = 3
	assert.Empty(t, Validate(sessions, []models.Educator{solo}, relaxed))
}

func TestValidateGapResetsConsecutiveRun(t *testing.T) {
	sessions := []models.Session{
		sessionFixture("s1", "a", "2026-06-01", "08:00", "08:30"),
		sessionFixture("s2", "a", "2026-06-01", "08:30", "09:00"),
		sessionFixture("s3", "a", "2026-06-01", "11:00", "11:30"),
		sessionFixture("s4", "a", "2026-06-01", "11:30", "12:00"),
	}
	solo := testEducator("a", "Alice Mokoena")
	solo.MaxSessionsPerDay = intPtr(10)

	assert.Empty(t, Validate(sessions, []models.Educator{solo}, testSettings()))
}

func TestValidateIgnoresUnknownEducators(t *testing.T) {
	sessions := []models.Session{
		sessionFixture("s1", "ghost", "2026-06-01", "09:00", "10:00"),
		sessionFixture("s2", "ghost", "2026-06-01", "09:30", "10:30"),
	}

	assert.Empty(t, Validate(sessions, nil, testSettings()))
}
