package dto

import "github.com/jagesaurus/invigilation-api/internal/models"

// GenerateScheduleRequest asks for a fresh invigilation proposal covering an
// inclusive exam-period date range.
type GenerateScheduleRequest struct {
	Name      string           `json:"name" validate:"required"`
	StartDate string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string           `json:"end_date" validate:"required,datetime=2006-01-02"`
	Settings  *models.Settings `json:"settings,omitempty"`
}

// ScheduleProposalResponse is a generated but not yet persisted schedule.
type ScheduleProposalResponse struct {
	ProposalID  string              `json:"proposal_id"`
	Name        string              `json:"name"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date"`
	Assignments []models.Assignment `json:"assignments"`
	Sessions    []models.Session    `json:"sessions"`
	Conflicts   []models.Conflict   `json:"conflicts"`
	Fairness    models.FairnessReport `json:"fairness"`
	ExpiresAt   string              `json:"expires_at"`
}

// SaveScheduleRequest persists a previously generated proposal.
type SaveScheduleRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
}

// ValidateScheduleRequest asks for a conflict re-check of an ad-hoc session
// list, typically after manual edits on the client.
type ValidateScheduleRequest struct {
	Sessions []models.Session `json:"sessions" validate:"required,min=1"`
}

// ValidateScheduleResponse lists the conflicts found.
type ValidateScheduleResponse struct {
	Conflicts []models.Conflict `json:"conflicts"`
	Valid     bool              `json:"valid"`
}

// SubstituteRequest swaps the educator on a saved session.
type SubstituteRequest struct {
	EducatorID string  `json:"educator_id" validate:"required"`
	Reason     *string `json:"reason,omitempty"`
}

// RosterImportResult summarises a CSV import run.
type RosterImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings"`
}

// ExportRequest selects what to export and in which format.
type ExportRequest struct {
	Format  string `json:"format" validate:"required,oneof=csv pdf"`
	GroupBy string `json:"group_by" validate:"omitempty,oneof=date educator"`
}

// ExportResponse returns a signed download link for the rendered file.
type ExportResponse struct {
	ExportID    string `json:"export_id"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}
