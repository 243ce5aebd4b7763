package models

import "time"

// Settings controls how invigilation schedules are generated and validated.
type Settings struct {
	SessionDuration          int  `db:"session_duration" json:"session_duration"`
	BreakBetweenSessions     int  `db:"break_between_sessions" json:"break_between_sessions"`
	MaxSessionsPerDay        int  `db:"max_sessions_per_day" json:"max_sessions_per_day"`
	MaxConsecutiveSessions   int  `db:"max_consecutive_sessions" json:"max_consecutive_sessions"`
	RequireBreakAfterRun     bool `db:"require_break_after_run" json:"require_break_after_run"`
	HallInvigilatorRatio     int  `db:"hall_invigilator_ratio" json:"hall_invigilator_ratio"`
	ClassroomInvigilatorRatio int `db:"classroom_invigilator_ratio" json:"classroom_invigilator_ratio"`
}

// DefaultSettings returns the generation defaults used when no settings row
// has been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		SessionDuration:           30,
		BreakBetweenSessions:      15,
		MaxSessionsPerDay:         4,
		MaxConsecutiveSessions:    2,
		RequireBreakAfterRun:      true,
		HallInvigilatorRatio:      50,
		ClassroomInvigilatorRatio: 30,
	}
}

// Session is one invigilation duty slot assigned to an educator in a room.
type Session struct {
	ID                string  `db:"id" json:"id"`
	EducatorID        string  `db:"educator_id" json:"educator_id"`
	EducatorName      string  `db:"educator_name" json:"educator_name"`
	ExamID            string  `db:"exam_id" json:"exam_id"`
	ExamName          string  `db:"exam_name" json:"exam_name"`
	ExamDate          string  `db:"exam_date" json:"exam_date"`
	ExamStartTime     string  `db:"exam_start_time" json:"exam_start_time"`
	ExamEndTime       string  `db:"exam_end_time" json:"exam_end_time"`
	SessionStartTime  string  `db:"session_start_time" json:"session_start_time"`
	SessionEndTime    string  `db:"session_end_time" json:"session_end_time"`
	RoomID            string  `db:"room_id" json:"room_id"`
	RoomName          string  `db:"room_name" json:"room_name"`
	RoomKind          RoomKind `db:"room_kind" json:"room_kind"`
	StudentCount      int     `db:"student_count" json:"student_count"`
	SessionNumber     int     `db:"session_number" json:"session_number"`
	IsMainInvigilator bool    `db:"is_main_invigilator" json:"is_main_invigilator"`
	Notes             *string `db:"notes" json:"notes,omitempty"`
}

// RoomAssignment records how many students of an exam were seated in a room
// and which educators invigilate there.
type RoomAssignment struct {
	RoomID               string   `json:"room_id"`
	RoomName             string   `json:"room_name"`
	RoomKind             RoomKind `json:"room_kind"`
	Capacity             int      `json:"capacity"`
	AssignedStudents     int      `json:"assigned_students"`
	RequiredInvigilators int      `json:"required_invigilators"`
	AssignedInvigilators []string `json:"assigned_invigilators"`
}

// Assignment summarises the room plan for one exam.
type Assignment struct {
	ExamID          string           `json:"exam_id"`
	ExamName        string           `json:"exam_name"`
	ExamDate        string           `json:"exam_date"`
	ExamStartTime   string           `json:"exam_start_time"`
	ExamEndTime     string           `json:"exam_end_time"`
	StudentCount    int              `json:"student_count"`
	Duration        int              `json:"duration"`
	RoomAssignments []RoomAssignment `json:"room_assignments"`
}

// ConflictKind enumerates the detectable scheduling problems.
type ConflictKind string

const (
	ConflictOverlap          ConflictKind = "overlap"
	ConflictOverload         ConflictKind = "overload"
	ConflictUnavailable      ConflictKind = "unavailable"
	ConflictConsecutive      ConflictKind = "consecutive"
	ConflictConsecutiveLimit ConflictKind = "consecutive_limit"
)

// ConflictSeverity tells whether a conflict blocks saving or is advisory.
type ConflictSeverity string

const (
	SeverityWarning ConflictSeverity = "warning"
	SeverityError   ConflictSeverity = "error"
)

// Conflict describes a scheduling problem tied to an educator and session.
type Conflict struct {
	Kind         ConflictKind     `json:"kind"`
	EducatorID   string           `json:"educator_id"`
	EducatorName string           `json:"educator_name"`
	SessionID    string           `json:"session_id"`
	Message      string           `json:"message"`
	Severity     ConflictSeverity `json:"severity"`
}

// Workload tracks a single educator's running load during generation.
type Workload struct {
	EducatorID          string `json:"educator_id"`
	TotalSessions       int    `json:"total_sessions"`
	MorningSessions     int    `json:"morning_sessions"`
	AfternoonSessions   int    `json:"afternoon_sessions"`
	ConsecutiveSessions int    `json:"consecutive_sessions"`
	LastSessionDate     string `json:"last_session_date"`
	LastSessionTime     string `json:"last_session_time"`
}

// EducatorTally is one educator's share of the schedule in a fairness report.
type EducatorTally struct {
	EducatorID        string `json:"educator_id"`
	EducatorName      string `json:"educator_name"`
	TotalSessions     int    `json:"total_sessions"`
	MorningSessions   int    `json:"morning_sessions"`
	AfternoonSessions int    `json:"afternoon_sessions"`
}

// FairnessReport scores how evenly duties are spread across educators.
type FairnessReport struct {
	Score              float64         `json:"score"`
	TotalSessions      int             `json:"total_sessions"`
	AveragePerEducator float64         `json:"average_per_educator"`
	MostSessions       int             `json:"most_sessions"`
	LeastSessions      int             `json:"least_sessions"`
	MorningTotal       int             `json:"morning_total"`
	AfternoonTotal     int             `json:"afternoon_total"`
	Tallies            []EducatorTally `json:"tallies"`
	Recommendations    []string        `json:"recommendations"`
}

// Schedule is a persisted invigilation plan covering an exam period.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate string    `db:"start_date" json:"start_date"`
	EndDate   string    `db:"end_date" json:"end_date"`
	Settings  Settings  `db:"-" json:"settings"`
	Sessions  []Session `db:"-" json:"sessions"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
