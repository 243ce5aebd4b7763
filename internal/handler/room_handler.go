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

// RoomHandler wires room services to HTTP routes.
type RoomHandler struct {
	rooms  *service.RoomService
	roster *service.RosterImportService
}

// NewRoomHandler constructs a new RoomHandler.
func NewRoomHandler(rooms *service.RoomService, roster *service.RosterImportService) *RoomHandler {
	return &RoomHandler{rooms: rooms, roster: roster}
}

// List godoc
// @Summary List rooms
// @Tags Rooms
// @Produce json
// @Param search query string false "Search by name/building"
// @Param kind query string false "Filter by kind (classroom,laboratory,hall)"
// @Param available query bool false "Only available rooms"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.RoomFilter{
		Search:        strings.TrimSpace(c.Query("search")),
		Kind:          c.Query("kind"),
		AvailableOnly: strings.EqualFold(c.Query("available"), "true"),
		SortBy:        c.Query("sort"),
		SortOrder:     c.Query("order"),
		Page:          page,
		PageSize:      size,
	}

	rooms, total, err := h.rooms.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, paginationFor(page, size, total))
}

// Get godoc
// @Summary Get room detail
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Create godoc
// @Summary Create room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.RoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.rooms.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Update godoc
// @Summary Update room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.RoomRequest true "Room payload"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	var req dto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.rooms.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Delete godoc
// @Summary Delete room
// @Tags Rooms
// @Param id path string true "Room ID"
// @Success 204
// @Router /rooms/{id} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.rooms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetAvailability godoc
// @Summary Toggle room availability
// @Tags Rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body object true "Availability payload"
// @Success 204
// @Router /rooms/{id}/availability [patch]
func (h *RoomHandler) SetAvailability(c *gin.Context) {
	var payload struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "is_available is required"))
		return
	}
	if err := h.rooms.SetAvailability(c.Request.Context(), c.Param("id"), *payload.IsAvailable); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import rooms from CSV
// @Tags Rooms
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV roster file"
// @Success 200 {object} response.Envelope
// @Router /rooms/import [post]
func (h *RoomHandler) Import(c *gin.Context) {
	file, err := openRosterUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	result, err := h.roster.ImportRooms(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
