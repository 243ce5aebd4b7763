package allocator

import (
	"fmt"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

// Result is the outcome of assembling a full schedule: the assigned sessions
// in generation order plus every conflict recorded along the way.
type Result struct {
	Sessions  []models.Session  `json:"sessions"`
	Conflicts []models.Conflict `json:"conflicts"`
}

// AssignEducators turns per-exam room plans into a fully assigned session
// list. Exams are processed date by date with a fresh workload ledger per
// date, educators blocked on a date are excluded up front, and within a date
// the input order of exams, rooms and educators decides every tie, so the
// same input always yields the same output.
func AssignEducators(assignments []models.Assignment, educators []models.Educator, settings models.Settings) (Result, error) {
	result := Result{Sessions: []models.Session{}, Conflicts: []models.Conflict{}}

	dates, byDate := groupByDate(assignments)

	for _, date := range dates {
		pool := availableOn(educators, date)

		workload := make(map[string]*models.Workload, len(pool))
		for _, educator := range pool {
			workload[educator.ID] = &models.Workload{EducatorID: educator.ID}
		}

		var dateSessions []models.Session
		for _, assignment := range byDate[date] {
			for _, room := range assignment.RoomAssignments {
				slots, err := SessionsForRoom(assignment, room, settings)
				if err != nil {
					return Result{}, err
				}
				for _, slot := range slots {
					educator, ok := pickEducator(slot, pool, workload, dateSessions, settings)
					if !ok {
						result.Conflicts = append(result.Conflicts, models.Conflict{
							Kind:         models.ConflictOverload,
							EducatorName: "No available educator",
							SessionID:    slot.ID,
							Message:      fmt.Sprintf("No available educator for session in %s", slot.RoomName),
							Severity:     models.SeverityError,
						})
						continue
					}
					slot.EducatorID = educator.ID
					slot.EducatorName = educator.FullName
					dateSessions = append(dateSessions, slot)
					recordAssignment(workload[educator.ID], slot, date)
				}
			}
		}
		result.Sessions = append(result.Sessions, dateSessions...)
	}
	return result, nil
}

// pickEducator returns the best-scoring eligible educator for a slot, or
// false when nobody qualifies. Ties go to the earlier educator in the pool.
func pickEducator(slot models.Session, pool []models.Educator, workload map[string]*models.Workload, assigned []models.Session, settings models.Settings) (models.Educator, bool) {
	best := models.Educator{}
	bestScore := 0
	found := false

	for _, educator := range pool {
		load := workload[educator.ID]
		if !eligible(slot, educator, load, assigned, settings) {
			continue
		}
		// Scores go negative once an educator carries more than ten
		// sessions, so the first eligible educator always wins the seat.
		score := scoreEducator(slot, educator, load)
		if !found || score > bestScore {
			best = educator
			bestScore = score
			found = true
		}
	}
	return best, found
}

// eligible applies the hard per-slot constraints: daily cap, no time overlap
// with the educator's existing sessions that date, and the consecutive-run
// cap from settings.
func eligible(slot models.Session, educator models.Educator, load *models.Workload, assigned []models.Session, settings models.Settings) bool {
	if load.TotalSessions >= educator.EffectiveDailyCap(settings.MaxSessionsPerDay) {
		return false
	}
	for _, existing := range assigned {
		if existing.EducatorID == educator.ID && existing.ExamDate == slot.ExamDate && SessionsOverlap(slot, existing) {
			return false
		}
	}
	if load.ConsecutiveSessions >= settings.MaxConsecutiveSessions {
		return false
	}
	return true
}

// scoreEducator ranks an eligible educator for a slot. Lighter total load
// scores highest, balancing the educator's morning/afternoon split and a
// fresh (non-consecutive) educator earn bonuses, and matching a preferred
// start time adds a final nudge.
func scoreEducator(slot models.Session, educator models.Educator, load *models.Workload) int {
	score := (10 - load.TotalSessions) * 10

	morning := clockHour(slot.SessionStartTime) < 12
	if morning && load.MorningSessions < load.AfternoonSessions {
		score += 20
	} else if !morning && load.AfternoonSessions < load.MorningSessions {
		score += 20
	}

	if load.ConsecutiveSessions == 0 {
		score += 15
	}
	if educator.PrefersTime(slot.SessionStartTime) {
		score += 10
	}
	return score
}

// recordAssignment updates the educator's running ledger after a slot is
// assigned. A slot starting within two hours of the previous one extends the
// consecutive run, otherwise the run restarts at one.
func recordAssignment(load *models.Workload, slot models.Session, date string) {
	load.TotalSessions++

	if clockHour(slot.SessionStartTime) < 12 {
		load.MorningSessions++
	} else {
		load.AfternoonSessions++
	}

	if load.LastSessionDate == date && load.LastSessionTime != "" {
		gap := clockHour(slot.SessionStartTime) - clockHour(load.LastSessionTime)
		if gap < 0 {
			gap = -gap
		}
		if gap <= 2 {
			load.ConsecutiveSessions++
		} else {
			load.ConsecutiveSessions = 1
		}
	} else {
		load.ConsecutiveSessions = 1
	}

	load.LastSessionTime = slot.SessionStartTime
	load.LastSessionDate = date
}

// SessionsOverlap reports whether two sessions on the same date share any
// time. Touching end-to-start does not count.
func SessionsOverlap(a, b models.Session) bool {
	if a.ExamDate != b.ExamDate {
		return false
	}
	startA, errA := parseClock(a.SessionStartTime)
	endA, errB := parseClock(a.SessionEndTime)
	startB, errC := parseClock(b.SessionStartTime)
	endB, errD := parseClock(b.SessionEndTime)
	if errA != nil || errB != nil || errC != nil || errD != nil {
		return false
	}
	return spansOverlap(startA, endA, startB, endB)
}

// groupByDate buckets assignments by exam date, keeping dates in first
// appearance order.
func groupByDate(assignments []models.Assignment) ([]string, map[string][]models.Assignment) {
	dates := make([]string, 0, len(assignments))
	byDate := make(map[string][]models.Assignment, len(assignments))
	for _, assignment := range assignments {
		if _, seen := byDate[assignment.ExamDate]; !seen {
			dates = append(dates, assignment.ExamDate)
		}
		byDate[assignment.ExamDate] = append(byDate[assignment.ExamDate], assignment)
	}
	return dates, byDate
}

// availableOn filters out educators blocked for the whole date.
func availableOn(educators []models.Educator, date string) []models.Educator {
	pool := make([]models.Educator, 0, len(educators))
	for _, educator := range educators {
		if !educator.UnavailableOn(date) {
			pool = append(pool, educator)
		}
	}
	return pool
}
