package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	"github.com/jagesaurus/invigilation-api/internal/service"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
	"github.com/jagesaurus/invigilation-api/pkg/response"
)

type invigilationScheduler interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleProposalResponse, error)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (*models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context, page, pageSize int) ([]models.Schedule, int, error)
	DeleteSchedule(ctx context.Context, id string) error
	Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidateScheduleResponse, error)
	Fairness(ctx context.Context, scheduleID string) (*models.FairnessReport, error)
	Substitute(ctx context.Context, sessionID string, req dto.SubstituteRequest) (*models.Session, error)
}

// ScheduleHandler exposes schedule generation and management endpoints.
type ScheduleHandler struct {
	invigilation invigilationScheduler
	metrics      *service.MetricsService
}

// NewScheduleHandler constructs the handler. The metrics service may be nil.
func NewScheduleHandler(invigilation *service.InvigilationService, metrics *service.MetricsService) *ScheduleHandler {
	return &ScheduleHandler{invigilation: invigilation, metrics: metrics}
}

// Generate godoc
// @Summary Generate invigilation schedule proposal
// @Description Builds a proposal for the requested exam period. Nothing is persisted until the proposal is saved.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}

	start := time.Now()
	proposal, err := h.invigilation.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveGeneration(len(proposal.Sessions), len(proposal.Conflicts), time.Since(start))

	response.JSON(c, http.StatusOK, proposal, nil)
}

// Save godoc
// @Summary Save a generated proposal
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Save schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	schedule, err := h.invigilation.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveScheduleSaved()
	response.Created(c, schedule)
}

// List godoc
// @Summary List saved schedules
// @Tags Schedules
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	schedules, total, err := h.invigilation.ListSchedules(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, paginationFor(page, size, total))
}

// Get godoc
// @Summary Get a saved schedule with its sessions
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.invigilation.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete a saved schedule
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.invigilation.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Validate godoc
// @Summary Validate a session list against the roster and settings
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.ValidateScheduleRequest true "Sessions to validate"
// @Success 200 {object} response.Envelope
// @Router /schedules/validate [post]
func (h *ScheduleHandler) Validate(c *gin.Context) {
	var req dto.ValidateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validate payload"))
		return
	}
	result, err := h.invigilation.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Fairness godoc
// @Summary Fairness report for a saved schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/fairness [get]
func (h *ScheduleHandler) Fairness(c *gin.Context) {
	report, err := h.invigilation.Fairness(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Substitute godoc
// @Summary Reassign a session to another educator
// @Description Rejects substitutes who are unavailable on the exam date or already booked in an overlapping slot.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.SubstituteRequest true "Substitute payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{sessionId}/substitute [post]
func (h *ScheduleHandler) Substitute(c *gin.Context) {
	var req dto.SubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitute payload"))
		return
	}
	session, err := h.invigilation.Substitute(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
