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

// ChallanHandler exposes fee challan endpoints.
type ChallanHandler struct {
	challans *service.ChallanService
}

// NewChallanHandler constructs ChallanHandler.
func NewChallanHandler(challans *service.ChallanService) *ChallanHandler {
	return &ChallanHandler{challans: challans}
}

// List godoc
// @Summary List challans
// @Tags Challans
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param hostel query string false "Filter by hostel"
// @Param status query string false "Filter by status (PENDING or PAID)"
// @Param search query string false "Search by name or registration number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /challans [get]
func (h *ChallanHandler) List(c *gin.Context) {
	var filter models.ChallanFilter
	filter.StudentID = c.Query("studentId")
	filter.Hostel = c.Query("hostel")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if status := strings.ToUpper(c.Query("status")); status != "" {
		s := models.ChallanStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	challans, pagination, err := h.challans.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, challans, pagination)
}

// Issue godoc
// @Summary Issue a challan for a student
// @Tags Challans
// @Accept json
// @Produce json
// @Param payload body map[string]interface{} true "Challan payload"
// @Success 201 {object} response.Envelope
// @Router /challans [post]
func (h *ChallanHandler) Issue(c *gin.Context) {
	var payload struct {
		StudentID string  `json:"studentId" binding:"required"`
		Semester  string  `json:"semester" binding:"required"`
		Amount    float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	challan, err := h.challans.Issue(c.Request.Context(), payload.StudentID, payload.Semester, payload.Amount, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, challan)
}

// MarkPaid godoc
// @Summary Settle a challan
// @Description Marks a challan paid and flips the student's fee table entry for the semester.
// @Tags Challans
// @Accept json
// @Produce json
// @Param id path string true "Challan ID"
// @Param payload body dto.MarkChallanPaidRequest true "Settlement payload"
// @Success 200 {object} response.Envelope
// @Router /challans/{id}/pay [post]
func (h *ChallanHandler) MarkPaid(c *gin.Context) {
	var req dto.MarkChallanPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	challan, err := h.challans.MarkPaid(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, challan, nil)
}

// FeeStructure godoc
// @Summary Get a student's fee structure by registration number
// @Tags Challans
// @Produce json
// @Param registration path string true "Registration number"
// @Success 200 {object} response.Envelope
// @Router /fees/{registration} [get]
func (h *ChallanHandler) FeeStructure(c *gin.Context) {
	resp, err := h.challans.FeeStructure(c.Request.Context(), c.Param("registration"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
