package allocator

import (
	"fmt"
	"math"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

// Fairness scores how evenly a session list spreads duties across the full
// educator roster. Educators with zero sessions are counted, which is what
// drags the score down when work piles onto a few people. The score is
// 100 - (population stddev of per-educator counts / (total/2)) * 100,
// clamped to [0, 100].
func Fairness(sessions []models.Session, educators []models.Educator) models.FairnessReport {
	report := models.FairnessReport{
		Tallies:         make([]models.EducatorTally, 0, len(educators)),
		Recommendations: []string{},
	}
	if len(educators) == 0 {
		return report
	}

	counts := make(map[string]*models.EducatorTally, len(educators))
	for _, educator := range educators {
		tally := &models.EducatorTally{EducatorID: educator.ID, EducatorName: educator.FullName}
		counts[educator.ID] = tally
	}

	morningTotal := 0
	afternoonTotal := 0
	for _, session := range sessions {
		tally, known := counts[session.EducatorID]
		if !known {
			continue
		}
		tally.TotalSessions++
		if clockHour(session.SessionStartTime) < 12 {
			tally.MorningSessions++
			morningTotal++
		} else {
			tally.AfternoonSessions++
			afternoonTotal++
		}
	}

	total := len(sessions)
	average := float64(total) / float64(len(educators))

	most := 0
	least := math.MaxInt
	variance := 0.0
	for _, educator := range educators {
		tally := counts[educator.ID]
		report.Tallies = append(report.Tallies, *tally)
		if tally.TotalSessions > most {
			most = tally.TotalSessions
		}
		if tally.TotalSessions < least {
			least = tally.TotalSessions
		}
		diff := float64(tally.TotalSessions) - average
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(len(educators)))

	report.TotalSessions = total
	report.AveragePerEducator = average
	report.MostSessions = most
	report.LeastSessions = least
	report.MorningTotal = morningTotal
	report.AfternoonTotal = afternoonTotal

	score := 100.0
	if total > 0 {
		score = 100 - (stddev/(float64(total)/2))*100
	}
	report.Score = math.Max(0, score)

	if report.Score < 70 {
		report.Recommendations = append(report.Recommendations, "Consider redistributing sessions to improve fairness")
	}
	if math.Abs(float64(morningTotal-afternoonTotal)) > float64(total)*0.2 {
		report.Recommendations = append(report.Recommendations, "Morning and afternoon session distribution is uneven")
	}

	idle := 0
	overloaded := 0
	for _, tally := range report.Tallies {
		if tally.TotalSessions == 0 {
			idle++
		}
		if float64(tally.TotalSessions) > average*1.5 {
			overloaded++
		}
	}
	if idle > 0 {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf("%d educators have no sessions assigned", idle))
	}
	if overloaded > 0 {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf("%d educators have significantly more sessions than average", overloaded))
	}
	return report
}
