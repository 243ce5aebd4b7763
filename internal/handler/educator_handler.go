package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	"github.com/jagesaurus/invigilation-api/internal/service"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
	"github.com/jagesaurus/invigilation-api/pkg/response"
)

// EducatorHandler wires educator services to HTTP routes.
type EducatorHandler struct {
	educators *service.EducatorService
	roster    *service.RosterImportService
}

// NewEducatorHandler constructs a new EducatorHandler.
func NewEducatorHandler(educators *service.EducatorService, roster *service.RosterImportService) *EducatorHandler {
	return &EducatorHandler{educators: educators, roster: roster}
}

// List godoc
// @Summary List educators
// @Tags Educators
// @Produce json
// @Param search query string false "Search by name/email/department"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (full_name,email,department,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /educators [get]
func (h *EducatorHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.EducatorFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
		Page:      page,
		PageSize:  size,
	}

	educators, total, err := h.educators.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, educators, paginationFor(page, size, total))
}

// Get godoc
// @Summary Get educator detail
// @Tags Educators
// @Produce json
// @Param id path string true "Educator ID"
// @Success 200 {object} response.Envelope
// @Router /educators/{id} [get]
func (h *EducatorHandler) Get(c *gin.Context) {
	educator, err := h.educators.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, educator, nil)
}

// Create godoc
// @Summary Create educator
// @Tags Educators
// @Accept json
// @Produce json
// @Param payload body dto.EducatorRequest true "Educator payload"
// @Success 201 {object} response.Envelope
// @Router /educators [post]
func (h *EducatorHandler) Create(c *gin.Context) {
	var req dto.EducatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid educator payload"))
		return
	}
	educator, err := h.educators.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, educator)
}

// Update godoc
// @Summary Update educator
// @Tags Educators
// @Accept json
// @Produce json
// @Param id path string true "Educator ID"
// @Param payload body dto.EducatorRequest true "Educator payload"
// @Success 200 {object} response.Envelope
// @Router /educators/{id} [put]
func (h *EducatorHandler) Update(c *gin.Context) {
	var req dto.EducatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid educator payload"))
		return
	}
	educator, err := h.educators.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, educator, nil)
}

// Delete godoc
// @Summary Delete educator
// @Tags Educators
// @Param id path string true "Educator ID"
// @Success 204
// @Router /educators/{id} [delete]
func (h *EducatorHandler) Delete(c *gin.Context) {
	if err := h.educators.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import educators from CSV
// @Description Upload a CSV roster; rows missing a name are skipped with warnings.
// @Tags Educators
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV roster file"
// @Success 200 {object} response.Envelope
// @Router /educators/import [post]
func (h *EducatorHandler) Import(c *gin.Context) {
	file, err := openRosterUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	result, err := h.roster.ImportEducators(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
