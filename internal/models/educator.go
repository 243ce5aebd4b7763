package models

import (
	"time"

	"github.com/lib/pq"
)

// Educator represents a staff member eligible to invigilate exam sessions.
type Educator struct {
	ID                string         `db:"id" json:"id"`
	FullName          string         `db:"full_name" json:"full_name"`
	Email             *string        `db:"email" json:"email,omitempty"`
	Phone             *string        `db:"phone" json:"phone,omitempty"`
	Department        *string        `db:"department" json:"department,omitempty"`
	MaxSessionsPerDay *int           `db:"max_sessions_per_day" json:"max_sessions_per_day,omitempty"`
	PreferredTimes    pq.StringArray `db:"preferred_times" json:"preferred_times"`
	UnavailableDates  pq.StringArray `db:"unavailable_dates" json:"unavailable_dates"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// EffectiveDailyCap returns the educator's personal daily limit, falling back
// to the provided global default when unset or non-positive.
func (e Educator) EffectiveDailyCap(fallback int) int {
	if e.MaxSessionsPerDay != nil && *e.MaxSessionsPerDay > 0 {
		return *e.MaxSessionsPerDay
	}
	return fallback
}

// UnavailableOn reports whether the educator is blocked for the whole date.
func (e Educator) UnavailableOn(date string) bool {
	for _, d := range e.UnavailableDates {
		if d == date {
			return true
		}
	}
	return false
}

// PrefersTime reports whether the HH:MM start time is among the educator's
// preferred slots.
func (e Educator) PrefersTime(start string) bool {
	for _, t := range e.PreferredTimes {
		if t == start {
			return true
		}
	}
	return false
}

// EducatorFilter captures filtering options for listing educators.
type EducatorFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
