package handler

import (
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

func pageParams(c *gin.Context) (int, int) {
	page := 1
	if parsed, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && parsed > 0 {
		page = parsed
	}
	size := 20
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && parsed > 0 {
		size = parsed
	}
	return page, size
}

func paginationFor(page, size, total int) *models.Pagination {
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func openRosterUpload(c *gin.Context) (multipart.File, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "multipart field 'file' is required")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot read uploaded file")
	}
	return file, nil
}
