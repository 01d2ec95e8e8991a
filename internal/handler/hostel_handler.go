package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	"github.com/hms-go/hms-api/internal/service"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
	"github.com/hms-go/hms-api/pkg/response"
)

// HostelHandler exposes hostel structure endpoints.
type HostelHandler struct {
	hostels *service.HostelService
	roster  *service.RosterService
}

// NewHostelHandler constructs HostelHandler.
func NewHostelHandler(hostels *service.HostelService, roster *service.RosterService) *HostelHandler {
	return &HostelHandler{hostels: hostels, roster: roster}
}

// List godoc
// @Summary List hostels
// @Tags Hostels
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /hostels [get]
func (h *HostelHandler) List(c *gin.Context) {
	var filter models.HostelFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	hostels, pagination, err := h.hostels.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostels, pagination)
}

// Stats godoc
// @Summary List hostels with live occupancy
// @Tags Hostels
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hostels/stats [get]
func (h *HostelHandler) Stats(c *gin.Context) {
	stats, err := h.hostels.ListWithStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Get godoc
// @Summary Get hostel detail
// @Tags Hostels
// @Produce json
// @Param id path string true "Hostel ID"
// @Success 200 {object} response.Envelope
// @Router /hostels/{id} [get]
func (h *HostelHandler) Get(c *gin.Context) {
	hostel, err := h.hostels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostel, nil)
}

// Roster godoc
// @Summary Get the full room-by-room occupancy view of a hostel
// @Tags Hostels
// @Produce json
// @Param name path string true "Hostel name"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /hostels/{name}/roster [get]
func (h *HostelHandler) Roster(c *gin.Context) {
	roster, err := h.roster.Roster(c.Request.Context(), c.Param("name"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Create godoc
// @Summary Create hostel
// @Tags Hostels
// @Accept json
// @Produce json
// @Param payload body dto.CreateHostelRequest true "Hostel payload"
// @Success 201 {object} response.Envelope
// @Router /hostels [post]
func (h *HostelHandler) Create(c *gin.Context) {
	var req dto.CreateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hostel, err := h.hostels.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hostel)
}

// Update godoc
// @Summary Update hostel
// @Tags Hostels
// @Accept json
// @Produce json
// @Param id path string true "Hostel ID"
// @Param payload body dto.UpdateHostelRequest true "Hostel payload"
// @Success 200 {object} response.Envelope
// @Router /hostels/{id} [put]
func (h *HostelHandler) Update(c *gin.Context) {
	var req dto.UpdateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hostel, err := h.hostels.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostel, nil)
}

// Delete godoc
// @Summary Delete hostel and everything attached to it
// @Tags Hostels
// @Produce json
// @Param id path string true "Hostel ID"
// @Success 200 {object} response.Envelope
// @Router /hostels/{id} [delete]
func (h *HostelHandler) Delete(c *gin.Context) {
	result, err := h.hostels.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
