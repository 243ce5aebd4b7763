package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
	"github.com/jagesaurus/invigilation-api/pkg/export"
	"github.com/jagesaurus/invigilation-api/pkg/jobs"
	"github.com/jagesaurus/invigilation-api/pkg/storage"
)

var exportHeaders = []string{"Date", "Time", "Room", "Exam", "Educator", "Students", "Role"}

type exportScheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

// ExportService renders saved schedules to CSV or PDF files and hands out
// signed download links. Rendered files are cleaned up by a background job
// after the link TTL passes.
type ExportService struct {
	schedules exportScheduleReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	cleanup   *jobs.Queue
	fileTTL   time.Duration
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. The cleanup queue may be nil
// in tests; files then simply stay on disk.
func NewExportService(
	schedules exportScheduleReader,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	cleanup *jobs.Queue,
	fileTTL time.Duration,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fileTTL <= 0 {
		fileTTL = 24 * time.Hour
	}
	return &ExportService{
		schedules: schedules,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		cleanup:   cleanup,
		fileTTL:   fileTTL,
		logger:    logger,
	}
}

// Export renders a saved schedule and returns a signed download link.
func (s *ExportService) Export(ctx context.Context, scheduleID string, req dto.ExportRequest) (*dto.ExportResponse, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "schedule not found")
	}

	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = "date"
	}

	var payload []byte
	var ext string
	switch req.Format {
	case "csv":
		ext = "csv"
		payload, err = s.csv.Render(export.Dataset{Headers: exportHeaders, Rows: sessionRows(schedule.Sessions, groupBy)})
	case "pdf":
		ext = "pdf"
		title := fmt.Sprintf("Invigilation Schedule: %s", schedule.Name)
		payload, err = s.pdf.RenderSections(exportHeaders, sessionSections(schedule.Sessions, groupBy), title)
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedExportSpec, fmt.Sprintf("unsupported format %q", req.Format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}

	exportID := uuid.NewString()
	fileName := fmt.Sprintf("invigilation_%s_%s.%s", schedule.ID, exportID[:8], ext)
	if _, err := s.store.Save(fileName, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store export file")
	}

	token, expiresAt, err := s.signer.Generate(exportID, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign download link")
	}

	s.enqueueCleanup(exportID)
	s.logger.Info("rendered schedule export",
		zap.String("scheduleId", schedule.ID),
		zap.String("format", req.Format),
		zap.String("file", fileName))

	return &dto.ExportResponse{
		ExportID:    exportID,
		FileName:    fileName,
		DownloadURL: "/api/v1/exports/download?token=" + token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

// OpenDownload validates a signed token and opens the referenced file.
func (s *ExportService) OpenDownload(token string) (*os.File, string, error) {
	_, fileName, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.store.Open(fileName)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return file, fileName, nil
}

// CleanupExpired removes export files older than the link TTL. It runs on
// the background queue but is exported for manual triggering.
func (s *ExportService) CleanupExpired(ctx context.Context) error {
	removed, err := s.store.CleanupOlderThan(s.fileTTL)
	if err != nil {
		return fmt.Errorf("cleanup exports: %w", err)
	}
	if len(removed) > 0 {
		s.logger.Info("cleaned up expired exports", zap.Int("removed", len(removed)))
	}
	return nil
}

func (s *ExportService) enqueueCleanup(exportID string) {
	if s.cleanup == nil {
		return
	}
	job := jobs.Job{
		ID:      "cleanup-" + exportID,
		Type:    "export_cleanup",
		Payload: exportID,
	}
	if err := s.cleanup.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue export cleanup", zap.Error(err))
	}
}

func sessionRow(session models.Session) map[string]string {
	role := "Invigilator"
	if session.IsMainInvigilator {
		role = "Main invigilator"
	}
	return map[string]string{
		"Date":     session.ExamDate,
		"Time":     session.SessionStartTime + " - " + session.SessionEndTime,
		"Room":     session.RoomName,
		"Exam":     session.ExamName,
		"Educator": session.EducatorName,
		"Students": fmt.Sprintf("%d", session.StudentCount),
		"Role":     role,
	}
}

func sessionRows(sessions []models.Session, groupBy string) []map[string]string {
	ordered := orderForExport(sessions, groupBy)
	rows := make([]map[string]string, 0, len(ordered))
	for _, session := range ordered {
		rows = append(rows, sessionRow(session))
	}
	return rows
}

// sessionSections groups sessions into per-date or per-educator report
// sections, mirroring how printed duty rosters are laid out.
func sessionSections(sessions []models.Session, groupBy string) []export.Section {
	ordered := orderForExport(sessions, groupBy)

	keyOf := func(session models.Session) string {
		if groupBy == "educator" {
			return session.EducatorName
		}
		return session.ExamDate
	}

	var sections []export.Section
	for _, session := range ordered {
		key := keyOf(session)
		if len(sections) == 0 || sections[len(sections)-1].Heading != key {
			sections = append(sections, export.Section{Heading: key})
		}
		last := &sections[len(sections)-1]
		last.Rows = append(last.Rows, sessionRow(session))
	}
	return sections
}

func orderForExport(sessions []models.Session, groupBy string) []models.Session {
	ordered := make([]models.Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if groupBy == "educator" {
			if ordered[i].EducatorName != ordered[j].EducatorName {
				return strings.ToLower(ordered[i].EducatorName) < strings.ToLower(ordered[j].EducatorName)
			}
		}
		if ordered[i].ExamDate != ordered[j].ExamDate {
			return ordered[i].ExamDate < ordered[j].ExamDate
		}
		if ordered[i].SessionStartTime != ordered[j].SessionStartTime {
			return ordered[i].SessionStartTime < ordered[j].SessionStartTime
		}
		return ordered[i].RoomName < ordered[j].RoomName
	})
	return ordered
}
