package allocator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

var (
	// ErrInsufficientCapacity is returned when available rooms cannot seat
	// every student of an exam.
	ErrInsufficientCapacity = errors.New("insufficient room capacity")

	// ErrExamNotSchedulable is returned when an exam is missing the date or
	// time fields needed to plan it.
	ErrExamNotSchedulable = errors.New("exam is not schedulable")
)

// RequiredInvigilators returns how many invigilators a room needs for the
// given seated student count. Halls use the hall ratio, everything else the
/// classroom ratio. The count is informational only: session generation always
// assigns exactly one invigilator per room slot.
func RequiredInvigilators(studentCount int, kind models.RoomKind, settings models.Settings) int {
	ratio := settings.ClassroomInvigilatorRatio
	if kind == models.RoomKindHall {
		ratio = settings.HallInvigilatorRatio
	}
	if ratio <= 0 {
		return 0
	}
	return (studentCount + ratio - 1) / ratio
}

// PlanExam seats an exam's students across the available rooms and returns
// the per-room allocation plan.
func PlanExam(exam models.Exam, rooms []models.Room, settings models.Settings) (models.Assignment, error) {
	if exam.Date == "" || exam.StartTime == "" || exam.EndTime == "" {
		return models.Assignment{}, fmt.Errorf("%w: exam %s needs date, start time and end time", ErrExamNotSchedulable, exam.ID)
	}

	start, err := parseClock(exam.StartTime)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("%w: %v", ErrExamNotSchedulable, err)
	}
	end, err := parseClock(exam.EndTime)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("%w: %v", ErrExamNotSchedulable, err)
	}
	duration := end - start
	if duration < 0 {
		duration = -duration
	}

	roomAssignments, err := DistributeStudents(exam.StudentCount, rooms, settings)
	if err != nil {
		return models.Assignment{}, err
	}

	return models.Assignment{
		ExamID:          exam.ID,
		ExamName:        exam.PaperName,
		ExamDate:        exam.Date,
		ExamStartTime:   exam.StartTime,
		ExamEndTime:     exam.EndTime,
		StudentCount:    exam.StudentCount,
		Duration:        duration,
		RoomAssignments: roomAssignments,
	}, nil
}

// DistributeStudents fills the largest available rooms first until every
// student is seated. Rooms with equal capacity keep their input order.
func DistributeStudents(totalStudents int, rooms []models.Room, settings models.Settings) ([]models.RoomAssignment, error) {
	available := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.IsAvailable {
			available = append(available, room)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Capacity > available[j].Capacity
	})

	assignments := make([]models.RoomAssignment, 0, len(available))
	remaining := totalStudents

	for _, room := range available {
		if remaining <= 0 {
			break
		}
		assigned := remaining
		if room.Capacity < assigned {
			assigned = room.Capacity
		}
		assignments = append(assignments, models.RoomAssignment{
			RoomID:               room.ID,
			RoomName:             room.Name,
			RoomKind:             room.Kind,
			Capacity:             room.Capacity,
			AssignedStudents:     assigned,
			RequiredInvigilators: RequiredInvigilators(assigned, room.Kind, settings),
			AssignedInvigilators: []string{},
		})
		remaining -= assigned
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: %d students cannot be accommodated", ErrInsufficientCapacity, remaining)
	}
	return assignments, nil
}
