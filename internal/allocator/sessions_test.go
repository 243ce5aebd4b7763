package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

func testAssignment(date, start, end string) models.Assignment {
	return models.Assignment{
		ExamID: "exam-1", ExamName: "Mathematics",
		ExamDate: date, ExamStartTime: start, ExamEndTime: end,
	}
}

func testRoomAssignment() models.RoomAssignment {
	return models.RoomAssignment{
		RoomID: "room-1", RoomName: "Main Hall", RoomKind: models.RoomKindHall,
		AssignedStudents: 40,
	}
}

func TestSessionsForRoomCoversExamWindow(t *testing.T) {
	settings := testSettings()

	sessions, err := SessionsForRoom(testAssignment("2026-06-01", "09:00", "10:40"), testRoomAssignment(), settings)
	require.NoError(t, err)

	// 100 minutes at 30-minute slots means four sessions, the last truncated.
	require.Len(t, sessions, 4)
	assert.Equal(t, "09:00", sessions[0].SessionStartTime)
	assert.Equal(t, "09:30", sessions[0].SessionEndTime)
	assert.Equal(t, "10:30", sessions[3].SessionStartTime)
	assert.Equal(t, "10:40", sessions[3].SessionEndTime)

	for i, session := range sessions {
		assert.Equal(t, i+1, session.SessionNumber)
		assert.Equal(t, i == 0, session.IsMainInvigilator)
		assert.Equal(t, "Main Hall", session.RoomName)
		assert.Equal(t, 40, session.StudentCount)
	}
}

func TestSessionsForRoomExactFit(t *testing.T) {
	sessions, err := SessionsForRoom(testAssignment("2026-06-01", "09:00", "10:00"), testRoomAssignment(), testSettings())
	require.NoError(t, err)

	require.Len(t, sessions, 2)
	assert.Equal(t, "10:00", sessions[1].SessionEndTime)
}

func TestSessionsForRoomContiguousSlots(t *testing.T) {
	sessions, err := SessionsForRoom(testAssignment("2026-06-01", "08:00", "11:00"), testRoomAssignment(), testSettings())
	require.NoError(t, err)

	require.Len(t, sessions, 6)
	for i := 1; i < len(sessions); i++ {
		assert.Equal(t, sessions[i-1].SessionEndTime, sessions[i].SessionStartTime)
	}
}

func TestSessionsForRoomDeterministicIDs(t *testing.T) {
	first, err := SessionsForRoom(testAssignment("2026-06-01", "09:00", "10:40"), testRoomAssignment(), testSettings())
	require.NoError(t, err)
	second, err := SessionsForRoom(testAssignment("2026-06-01", "09:00", "10:40"), testRoomAssignment(), testSettings())
	require.NoError(t, err)

	require.Equal(t, first, second)
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestSessionsForRoomRejectsBadTimes(t *testing.T) {
	_, err := SessionsForRoom(testAssignment("2026-06-01", "9am", "10:40"), testRoomAssignment(), testSettings())
	require.Error(t, err)

	settings := testSettings()
	settings.SessionDuration = 0
	_, err = SessionsForRoom(testAssignment("2026-06-01", "09:00", "10:40"), testRoomAssignment(), settings)
	require.Error(t, err)
}
