package allocator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

// sessionNamespace seeds UUIDv5 session identifiers so that regenerating a
// proposal from identical input yields identical IDs.
var sessionNamespace = uuid.MustParse("5c7f1a9e-43b2-4e8e-9f21-8a6d0c4b7e30")

func sessionID(examID, roomID string, number int) string {
	return uuid.NewSHA1(sessionNamespace, []byte(fmt.Sprintf("%s/%s/%d", examID, roomID, number))).String()
}

// SessionsForRoom carves an exam's window into invigilation slots for one
// room. Slots are sessionDuration minutes long and laid out contiguously
// from the exam's start time; the final slot is truncated to the exam's
// exact end time. The slot count is always ceil(duration/sessionDuration),
// sequence numbers start at 1, and the first slot is the main invigilator
// slot. Rest breaks between duties are handled by assignment and validation,
// never by shortening the covered exam window.
func SessionsForRoom(assignment models.Assignment, room models.RoomAssignment, settings models.Settings) ([]models.Session, error) {
	examStart, err := parseClock(assignment.ExamStartTime)
	if err != nil {
		return nil, err
	}
	examEnd, err := parseClock(assignment.ExamEndTime)
	if err != nil {
		return nil, err
	}

	duration := examEnd - examStart
	if duration < 0 {
		duration = -duration
	}
	if settings.SessionDuration <= 0 {
		return nil, fmt.Errorf("session duration must be positive, got %d", settings.SessionDuration)
	}
	needed := (duration + settings.SessionDuration - 1) / settings.SessionDuration

	sessions := make([]models.Session, 0, needed)
	for number := 1; number <= needed; number++ {
		start := examStart + (number-1)*settings.SessionDuration
		end := start + settings.SessionDuration
		if end > examEnd {
			end = examEnd
		}
		sessions = append(sessions, models.Session{
			ID:                sessionID(assignment.ExamID, room.RoomID, number),
			ExamID:            assignment.ExamID,
			ExamName:          assignment.ExamName,
			ExamDate:          assignment.ExamDate,
			ExamStartTime:     assignment.ExamStartTime,
			ExamEndTime:       assignment.ExamEndTime,
			SessionStartTime:  formatClock(start),
			SessionEndTime:    formatClock(end),
			RoomID:            room.RoomID,
			RoomName:          room.RoomName,
			RoomKind:          room.RoomKind,
			StudentCount:      room.AssignedStudents,
			SessionNumber:     number,
			IsMainInvigilator: number == 1,
		})
	}
	return sessions, nil
}
