package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	internalmiddleware "github.com/jagesaurus/invigilation-api/internal/middleware"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type invigilationSchedulerMock struct {
	captured     dto.GenerateScheduleRequest
	generateErr  error
	substituteID string
}

func (m *invigilationSchedulerMock) Generate(_ context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleProposalResponse, error) {
	m.captured = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &dto.ScheduleProposalResponse{
		ProposalID: "proposal-1",
		Sessions:   []models.Session{{ID: "s1"}},
		Conflicts:  []models.Conflict{},
	}, nil
}

func (m *invigilationSchedulerMock) Save(context.Context, dto.SaveScheduleRequest) (*models.Schedule, error) {
	return &models.Schedule{ID: "sch-1"}, nil
}

func (m *invigilationSchedulerMock) GetSchedule(context.Context, string) (*models.Schedule, error) {
	return &models.Schedule{ID: "sch-1"}, nil
}

func (m *invigilationSchedulerMock) ListSchedules(context.Context, int, int) ([]models.Schedule, int, error) {
	return []models.Schedule{{ID: "sch-1"}}, 1, nil
}

func (m *invigilationSchedulerMock) DeleteSchedule(context.Context, string) error {
	return nil
}

func (m *invigilationSchedulerMock) Validate(context.Context, dto.ValidateScheduleRequest) (*dto.ValidateScheduleResponse, error) {
	return &dto.ValidateScheduleResponse{Valid: true, Conflicts: []models.Conflict{}}, nil
}

func (m *invigilationSchedulerMock) Fairness(context.Context, string) (*models.FairnessReport, error) {
	return &models.FairnessReport{Score: 100}, nil
}

func (m *invigilationSchedulerMock) Substitute(_ context.Context, sessionID string, _ dto.SubstituteRequest) (*models.Session, error) {
	m.substituteID = sessionID
	return &models.Session{ID: sessionID, EducatorID: "e2"}, nil
}

func generatePayload() []byte {
	return []byte(`{"name":"June exams","start_date":"2026-06-01","end_date":"2026-06-05"}`)
}

func TestScheduleHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &invigilationSchedulerMock{}
	h := &ScheduleHandler{invigilation: mockSvc}

	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(generatePayload()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "June exams", mockSvc.captured.Name)
	require.Contains(t, w.Body.String(), `"proposal_id":"proposal-1"`)
}

func TestScheduleHandlerGenerateBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &ScheduleHandler{invigilation: &invigilationSchedulerMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader([]byte(`{"name":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerGenerateServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &invigilationSchedulerMock{
		generateErr: appErrors.Clone(appErrors.ErrInsufficientCapacity, "12 students cannot be accommodated"),
	}
	h := &ScheduleHandler{invigilation: mockSvc}

	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(generatePayload()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Generate(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "INSUFFICIENT_CAPACITY")
}

func TestScheduleHandlerSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &ScheduleHandler{invigilation: &invigilationSchedulerMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewReader([]byte(`{"proposal_id":"proposal-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "sch-1")
}

func TestScheduleHandlerSubstituteRouting(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &invigilationSchedulerMock{}
	h := &ScheduleHandler{invigilation: mockSvc}
	router := gin.New()
	router.POST("/sessions/:sessionId/substitute", h.Substitute)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/sessions/s42/substitute", bytes.NewReader([]byte(`{"educator_id":"e2"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "s42", mockSvc.substituteID)
}

func TestScheduleHandlerGenerateForbiddenForViewers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &ScheduleHandler{invigilation: &invigilationSchedulerMock{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleViewer})
		c.Next()
	})
	router.POST("/schedules/generate", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), h.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(generatePayload()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestScheduleHandlerGenerateUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &ScheduleHandler{invigilation: &invigilationSchedulerMock{}}
	router := gin.New()
	router.POST("/schedules/generate", internalmiddleware.RequireRoles(models.RoleAdmin), h.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(generatePayload()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
