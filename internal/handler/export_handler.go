package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/service"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
	"github.com/jagesaurus/invigilation-api/pkg/response"
)

// ExportHandler renders schedules to downloadable files.
type ExportHandler struct {
	exports *service.ExportService
	metrics *service.MetricsService
}

// NewExportHandler constructs the handler. The metrics service may be nil.
func NewExportHandler(exports *service.ExportService, metrics *service.MetricsService) *ExportHandler {
	return &ExportHandler{exports: exports, metrics: metrics}
}

// Export godoc
// @Summary Export a saved schedule to CSV or PDF
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.ExportRequest true "Export payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /exports/{id} [post]
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	result, err := h.exports.Export(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveExport(req.Format)
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a rendered export file
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}

	file, fileName, err := h.exports.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
