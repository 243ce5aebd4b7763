// Package allocator implements the invigilation scheduling engine: room
// seating, session slicing, fair educator assignment, schedule validation
// and fairness reporting. It is a pure library with no I/O; repeated calls
// on identical input produce identical output.
package allocator

import (
	"errors"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

// Schedule is a fully generated invigilation plan.
type Schedule struct {
	Assignments []models.Assignment `json:"assignments"`
	Sessions    []models.Session    `json:"sessions"`
	Conflicts   []models.Conflict   `json:"conflicts"`
}

// Generate plans every exam's room seating and assigns educators to all
// resulting sessions. Exams keep their input order throughout. Exams missing
// a date or time window are skipped, not errors; an exam exceeding total
// room capacity aborts the whole run, and per-session educator shortages
// surface as conflicts instead.
func Generate(exams []models.Exam, rooms []models.Room, educators []models.Educator, settings models.Settings) (Schedule, error) {
	assignments := make([]models.Assignment, 0, len(exams))
	for _, exam := range exams {
		assignment, err := PlanExam(exam, rooms, settings)
		if errors.Is(err, ErrExamNotSchedulable) {
			continue
		}
		if err != nil {
			return Schedule{}, err
		}
		assignments = append(assignments, assignment)
	}

	result, err := AssignEducators(assignments, educators, settings)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		Assignments: assignments,
		Sessions:    result.Sessions,
		Conflicts:   result.Conflicts,
	}, nil
}
