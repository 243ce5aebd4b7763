package allocator

import (
	"fmt"
	"sort"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

// consecutiveGapMinutes is the largest gap between one session's end and the
// next session's start for the pair to count as consecutive duty.
const consecutiveGapMinutes = 30

// Validate re-checks an assembled session list independently of the
// assembler's own bookkeeping. It groups sessions by educator and date, then
// flags daily-cap overloads, pairwise time overlaps, and consecutive runs
// exceeding the configured cap. Groups are visited in first-appearance order
// so repeated runs report conflicts identically.
func Validate(sessions []models.Session, educators []models.Educator, settings models.Settings) []models.Conflict {
	conflicts := []models.Conflict{}

	byEducator := make(map[string]map[string][]models.Session)
	educatorOrder := []string{}
	dateOrder := make(map[string][]string)

	for _, session := range sessions {
		if _, seen := byEducator[session.EducatorID]; !seen {
			byEducator[session.EducatorID] = make(map[string][]models.Session)
			educatorOrder = append(educatorOrder, session.EducatorID)
		}
		if _, seen := byEducator[session.EducatorID][session.ExamDate]; !seen {
			dateOrder[session.EducatorID] = append(dateOrder[session.EducatorID], session.ExamDate)
		}
		byEducator[session.EducatorID][session.ExamDate] = append(byEducator[session.EducatorID][session.ExamDate], session)
	}

	educatorByID := make(map[string]models.Educator, len(educators))
	for _, educator := range educators {
		educatorByID[educator.ID] = educator
	}

	for _, educatorID := range educatorOrder {
		educator, known := educatorByID[educatorID]
		if !known {
			continue
		}
		dailyCap := educator.EffectiveDailyCap(settings.MaxSessionsPerDay)

		for _, date := range dateOrder[educatorID] {
			daySessions := byEducator[educatorID][date]

			if len(daySessions) > dailyCap {
				conflicts = append(conflicts, models.Conflict{
					Kind:         models.ConflictOverload,
					EducatorID:   educatorID,
					EducatorName: educator.FullName,
					Message:      fmt.Sprintf("%s has %d sessions on %s, exceeding limit of %d", educator.FullName, len(daySessions), date, dailyCap),
					Severity:     models.SeverityWarning,
				})
			}

			for i := 0; i < len(daySessions); i++ {
				for j := i + 1; j < len(daySessions); j++ {
					if SessionsOverlap(daySessions[i], daySessions[j]) {
						conflicts = append(conflicts, models.Conflict{
							Kind:         models.ConflictOverlap,
							EducatorID:   educatorID,
							EducatorName: educator.FullName,
							SessionID:    daySessions[i].ID,
							Message:      fmt.Sprintf("%s has overlapping sessions on %s", educator.FullName, date),
							Severity:     models.SeverityError,
						})
					}
				}
			}

			run := consecutiveRun(daySessions)
			if run > settings.MaxConsecutiveSessions {
				conflicts = append(conflicts, models.Conflict{
					Kind:         models.ConflictConsecutive,
					EducatorID:   educatorID,
					EducatorName: educator.FullName,
					Message:      fmt.Sprintf("%s has %d consecutive sessions on %s", educator.FullName, run+1, date),
					Severity:     models.SeverityWarning,
				})
			}
		}
	}
	return conflicts
}

// consecutiveRun counts back-to-back adjacencies in a day's sessions, sorted
// by start time. Two sessions are adjacent when the gap between them is at
// most consecutiveGapMinutes; a larger gap resets the count.
func consecutiveRun(daySessions []models.Session) int {
	ordered := make([]models.Session, len(daySessions))
	copy(ordered, daySessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SessionStartTime < ordered[j].SessionStartTime
	})

	run := 0
	for i := 0; i < len(ordered)-1; i++ {
		end, err := parseClock(ordered[i].SessionEndTime)
		if err != nil {
			continue
		}
		next, err := parseClock(ordered[i+1].SessionStartTime)
		if err != nil {
			continue
		}
		gap := next - end
		if gap < 0 {
			gap = -gap
		}
		if gap <= consecutiveGapMinutes {
			run++
		} else {
			run = 0
		}
	}
	return run
}
