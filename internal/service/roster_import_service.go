package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type rosterEducatorWriter interface {
	Create(ctx context.Context, educator *models.Educator) error
}

type rosterRoomWriter interface {
	Create(ctx context.Context, room *models.Room) error
}

// RosterImportService ingests educator and room rosters from CSV files
// exported by school admin tools. Headers are matched case-insensitively and
// rows missing a name are skipped with a warning rather than failing the
// whole import.
type RosterImportService struct {
	educators rosterEducatorWriter
	rooms     rosterRoomWriter
	logger    *zap.Logger
}

// NewRosterImportService constructs a RosterImportService.
func NewRosterImportService(educators rosterEducatorWriter, rooms rosterRoomWriter, logger *zap.Logger) *RosterImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterImportService{educators: educators, rooms: rooms, logger: logger}
}

/// ImportEducators reads an educator roster CSV. Recognised columns: name,
// email, phone, department, max_sessions_per_day, preferred_times and
// unavailable_dates (the last two semicolon-separated).
func (s *RosterImportService) ImportEducators(ctx context.Context, r io.Reader) (*dto.RosterImportResult, error) {
	rows, err := readCSVRows(r)
	if err != nil {
		return nil, err
	}

	result := &dto.RosterImportResult{Warnings: []string{}}
	for i, row := range rows {
		name := row.get("name", "full_name", "fullname", "educator")
		if name == "" {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: missing name, skipped", i+2))
			continue
		}

		educator := &models.Educator{
			FullName:         name,
			Email:            optionalField(row.get("email")),
			Phone:            optionalField(row.get("phone")),
			Department:       optionalField(row.get("department", "dept")),
			PreferredTimes:   pq.StringArray(splitList(row.get("preferred_times", "preferredtimes"))),
			UnavailableDates: pq.StringArray(splitList(row.get("unavailable_dates", "unavailabledates"))),
		}
		if raw := row.get("max_sessions_per_day", "maxsessionsperday", "max_sessions"); raw != "" {
			if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
				educator.MaxSessionsPerDay = &limit
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: ignoring invalid max_sessions_per_day %q", i+2, raw))
			}
		}

		if err := s.educators.Create(ctx, educator); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("import educator row %d", i+2))
		}
		result.Imported++
	}

	s.logger.Info("imported educator roster",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// ImportRooms reads a room roster CSV. Capacity defaults to 30 and kind to
// classroom when the columns are absent or unparseable; hall rows may carry
// sections and per-section invigilator counts.
func (s *RosterImportService) ImportRooms(ctx context.Context, r io.Reader) (*dto.RosterImportResult, error) {
	rows, err := readCSVRows(r)
	if err != nil {
		return nil, err
	}

	result := &dto.RosterImportResult{Warnings: []string{}}
	for i, row := range rows {
		name := row.get("name", "room", "room_name")
		if name == "" {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: missing name, skipped", i+2))
			continue
		}

		capacity := 30
		if raw := row.get("capacity"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				capacity = parsed
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid capacity %q, using 30", i+2, raw))
			}
		}

		kind := models.RoomKindClassroom
		switch strings.ToLower(row.get("type", "kind")) {
		case "hall":
			kind = models.RoomKindHall
		case "laboratory", "lab":
			kind = models.RoomKindLaboratory
		}

		room := &models.Room{
			Name:        name,
			Capacity:    capacity,
			Kind:        kind,
			Building:    optionalField(row.get("building")),
			Floor:       optionalField(row.get("floor")),
			IsAvailable: true,
		}
		if raw := row.get("available", "is_available"); raw != "" {
			room.IsAvailable = parseBool(raw)
		}
		if kind == models.RoomKindHall {
			room.Sections = pq.StringArray(splitList(row.get("sections")))
			room.RequiresMultipleInvigilators = parseBool(row.get("requires_multiple_invigilators", "multi_invigilator"))
			room.InvigilatorsPerSection = 1
			if raw := row.get("invigilators_per_section"); raw != "" {
				if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
					room.InvigilatorsPerSection = parsed
				}
			}
		}

		if err := s.rooms.Create(ctx, room); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("import room row %d", i+2))
		}
		result.Imported++
	}

	s.logger.Info("imported room roster",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

type csvRow map[string]string

// get returns the first non-empty value among the candidate column names.
func (r csvRow) get(keys ...string) string {
	for _, key := range keys {
		if value, ok := r[key]; ok && value != "" {
			return value
		}
	}
	return ""
}

func readCSVRows(r io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty CSV file")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "read CSV header")
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "read CSV row")
		}
		row := make(csvRow, len(columns))
		for i, value := range record {
			if i < len(columns) {
				row[columns[i]] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func optionalField(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
