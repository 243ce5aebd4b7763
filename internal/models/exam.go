package models

import "time"

// Exam describes a scheduled paper that needs rooms and invigilators.
// Date is an ISO date (YYYY-MM-DD) and the time fields are HH:MM strings,
// matching how timetables are captured upstream.
type Exam struct {
	ID           string    `db:"id" json:"id"`
	PaperName    string    `db:"paper_name" json:"paper_name"`
	PaperNumber  *string   `db:"paper_number" json:"paper_number,omitempty"`
	ClassName    *string   `db:"class_name" json:"class_name,omitempty"`
	Date         string    `db:"exam_date" json:"date"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	DurationMin  int       `db:"duration_min" json:"duration_min"`
	StudentCount int       `db:"student_count" json:"student_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ExamFilter captures filtering options for listing exams.
type ExamFilter struct {
	Search    string
	Date      string
	FromDate  string
	ToDate    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
