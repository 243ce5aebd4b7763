package dto

// EducatorRequest creates or updates an educator.
type EducatorRequest struct {
	FullName          string   `json:"full_name" validate:"required"`
	Email             *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string  `json:"phone,omitempty"`
	Department        *string  `json:"department,omitempty"`
	MaxSessionsPerDay *int     `json:"max_sessions_per_day,omitempty" validate:"omitempty,min=1"`
	PreferredTimes    []string `json:"preferred_times,omitempty" validate:"omitempty,dive,len=5"`
	UnavailableDates  []string `json:"unavailable_dates,omitempty" validate:"omitempty,dive,datetime=2006-01-02"`
}

// RoomRequest creates or updates a room or hall.
type RoomRequest struct {
	Name                         string   `json:"name" validate:"required"`
	Capacity                     int      `json:"capacity" validate:"required,min=1"`
	Kind                         string   `json:"kind" validate:"required,oneof=classroom laboratory hall"`
	Building                     *string  `json:"building,omitempty"`
	Floor                        *string  `json:"floor,omitempty"`
	IsAvailable                  *bool    `json:"is_available,omitempty"`
	Sections                     []string `json:"sections,omitempty"`
	RequiresMultipleInvigilators bool     `json:"requires_multiple_invigilators"`
	InvigilatorsPerSection       int      `json:"invigilators_per_section" validate:"omitempty,min=0"`
}

// ExamRequest creates or updates an exam.
type ExamRequest struct {
	PaperName    string  `json:"paper_name" validate:"required"`
	PaperNumber  *string `json:"paper_number,omitempty"`
	ClassName    *string `json:"class_name,omitempty"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string  `json:"end_time" validate:"required,datetime=15:04"`
	StudentCount int     `json:"student_count" validate:"required,min=1"`
}
