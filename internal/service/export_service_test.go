package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
	"github.com/jagesaurus/invigilation-api/pkg/storage"
)

type exportScheduleStub struct {
	schedule *models.Schedule
}

func (s exportScheduleStub) FindByID(_ context.Context, id string) (*models.Schedule, error) {
	if s.schedule != nil && s.schedule.ID == id {
		return s.schedule, nil
	}
	return nil, sql.ErrNoRows
}

func exportScheduleFixture() *models.Schedule {
	return &models.Schedule{
		ID:   "sch-1",
		Name: "June exams",
		Sessions: []models.Session{
			{
				ID: "s2", ExamDate: "2026-06-02", ExamName: "Physics",
				SessionStartTime: "09:00", SessionEndTime: "09:30",
				RoomName: "Room 2", EducatorName: "Ben Dlamini", StudentCount: 25,
			},
			{
				ID: "s1", ExamDate: "2026-06-01", ExamName: "Biology",
				SessionStartTime: "09:00", SessionEndTime: "09:30",
				RoomName: "Room 1", EducatorName: "Alice Mokoena", StudentCount: 30,
				IsMainInvigilator: true,
			},
		},
	}
}

func newExportService(t *testing.T) (*ExportService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-signing-secret", time.Hour)
	svc := NewExportService(exportScheduleStub{schedule: exportScheduleFixture()}, store, signer, nil, time.Hour, nil)
	return svc, dir
}

func TestExportServiceCSV(t *testing.T) {
	svc, dir := newExportService(t)

	resp, err := svc.Export(context.Background(), "sch-1", dto.ExportRequest{Format: "csv"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.FileName, ".csv"))
	assert.Contains(t, resp.DownloadURL, "/api/v1/exports/download?token=")

	payload, err := os.ReadFile(filepath.Join(dir, resp.FileName))
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Date", "Time", "Room", "Exam", "Educator", "Students", "Role"}, records[0])
	// Rows are ordered by date regardless of stored order.
	assert.Equal(t, "2026-06-01", records[1][0])
	assert.Equal(t, "Main invigilator", records[1][6])
	assert.Equal(t, "2026-06-02", records[2][0])
	assert.Equal(t, "Invigilator", records[2][6])
}

func TestExportServicePDF(t *testing.T) {
	svc, dir := newExportService(t)

	resp, err := svc.Export(context.Background(), "sch-1", dto.ExportRequest{Format: "pdf", GroupBy: "educator"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.FileName, ".pdf"))

	payload, err := os.ReadFile(filepath.Join(dir, resp.FileName))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc, _ := newExportService(t)

	_, err := svc.Export(context.Background(), "sch-1", dto.ExportRequest{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedExportSpec.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownSchedule(t *testing.T) {
	svc, _ := newExportService(t)

	_, err := svc.Export(context.Background(), "missing", dto.ExportRequest{Format: "csv"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadRoundTrip(t *testing.T) {
	svc, _ := newExportService(t)

	resp, err := svc.Export(context.Background(), "sch-1", dto.ExportRequest{Format: "csv"})
	require.NoError(t, err)

	token := strings.TrimPrefix(resp.DownloadURL, "/api/v1/exports/download?token=")
	file, fileName, err := svc.OpenDownload(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, resp.FileName, fileName)

	payload, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Alice Mokoena")

	_, _, err = svc.OpenDownload("garbage-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
