package models

import (
	"time"

	"github.com/lib/pq"
)

// RoomKind enumerates the supported room categories.
type RoomKind string

const (
	RoomKindClassroom  RoomKind = "classroom"
	RoomKindLaboratory RoomKind = "laboratory"
	RoomKindHall       RoomKind = "hall"
)

// Room represents a venue where exam sessions can be seated. Halls carry
// extra section metadata used for reporting only.
type Room struct {
	ID                           string         `db:"id" json:"id"`
	Name                         string         `db:"name" json:"name"`
	Capacity                     int            `db:"capacity" json:"capacity"`
	Kind                         RoomKind       `db:"kind" json:"kind"`
	Building                     *string        `db:"building" json:"building,omitempty"`
	Floor                        *string        `db:"floor" json:"floor,omitempty"`
	IsAvailable                  bool           `db:"is_available" json:"is_available"`
	Sections                     pq.StringArray `db:"sections" json:"sections,omitempty"`
	RequiresMultipleInvigilators bool           `db:"requires_multiple_invigilators" json:"requires_multiple_invigilators"`
	InvigilatorsPerSection       int            `db:"invigilators_per_section" json:"invigilators_per_section"`
	CreatedAt                    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt                    time.Time      `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Search        string
	Kind          string
	AvailableOnly bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
