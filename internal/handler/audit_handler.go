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

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit entries
// @Description Wardens only see entries for their assigned hostels.
// @Tags Audit
// @Produce json
// @Param action query string false "Filter by action"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter models.AuditFilter
	filter.Action = strings.TrimSpace(c.Query("action"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	logs, pagination, err := h.audit.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Record godoc
// @Summary Record an audit entry
// @Tags Audit
// @Accept json
// @Produce json
// @Param payload body dto.CreateAuditLogRequest true "Audit payload"
// @Success 201 {object} response.Envelope
// @Router /audit [post]
func (h *AuditHandler) Record(c *gin.Context) {
	var req dto.CreateAuditLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.audit.Record(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}
