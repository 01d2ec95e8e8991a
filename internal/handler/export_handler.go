package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hms-go/hms-api/internal/service"
	"github.com/hms-go/hms-api/pkg/response"
)

// ExportHandler serves downloadable student and fee reports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// StudentsCSV godoc
// @Summary Download the student list as CSV
// @Tags Exports
// @Produce text/csv
// @Param hostel query string false "Limit to one hostel"
// @Success 200 {file} file
// @Router /exports/students.csv [get]
func (h *ExportHandler) StudentsCSV(c *gin.Context) {
	data, filename, err := h.exports.StudentsCSV(c.Request.Context(), c.Query("hostel"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, data, filename, "text/csv")
}

// StudentsPDF godoc
// @Summary Download the student list as PDF
// @Tags Exports
// @Produce application/pdf
// @Param hostel query string false "Limit to one hostel"
// @Success 200 {file} file
// @Router /exports/students.pdf [get]
func (h *ExportHandler) StudentsPDF(c *gin.Context) {
	data, filename, err := h.exports.StudentsPDF(c.Request.Context(), c.Query("hostel"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, data, filename, "application/pdf")
}

// FeeReportPDF godoc
// @Summary Download the fee status report as PDF
// @Tags Exports
// @Produce application/pdf
// @Param hostel query string false "Limit to one hostel"
// @Success 200 {file} file
// @Router /exports/fees.pdf [get]
func (h *ExportHandler) FeeReportPDF(c *gin.Context) {
	data, filename, err := h.exports.FeeReportPDF(c.Request.Context(), c.Query("hostel"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, data, filename, "application/pdf")
}

func serveDownload(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
