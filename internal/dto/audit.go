package dto

import "github.com/hms-go/hms-api/internal/models"

// CreateAuditLogRequest records a UI-originated audit entry.
type CreateAuditLogRequest struct {
	Action    string `json:"action" validate:"required"`
	Message   string `json:"message" validate:"required"`
	SubjectID string `json:"subjectId"`
	Hostel    string `json:"hostel"`
}

// AuditListResponse wraps an audit page with pagination metadata.
type AuditListResponse struct {
	Logs       []models.AuditLog `json:"logs"`
	Pagination models.Pagination `json:"pagination"`
}
