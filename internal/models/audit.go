package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionStudentCreate      = "STUDENT_CREATE"
	AuditActionStudentUpdate      = "STUDENT_UPDATE"
	AuditActionStudentDelete      = "STUDENT_DELETE"
	AuditActionStudentBatchDelete = "STUDENT_BATCH_DELETE"
	AuditActionHostelCreate       = "HOSTEL_CREATE"
	AuditActionHostelUpdate       = "HOSTEL_UPDATE"
	AuditActionHostelDelete       = "HOSTEL_DELETE"
	AuditActionChallanPaid        = "CHALLAN_PAID"
	AuditActionUserCreate         = "USER_CREATE"
	AuditActionUserUpdate         = "USER_UPDATE"
	AuditActionUserDelete         = "USER_DELETE"
)

// AuditLog represents an audit trail record. SubjectID carries the
// registration number (or other stable id) of the entity the entry is
// about; rows written before that column existed rely on the free-text
// Message for cleanup matching.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Username  string    `db:"username" json:"username"`
	Action    string    `db:"action" json:"action"`
	Message   string    `db:"message" json:"message"`
	SubjectID *string   `db:"subject_id" json:"subject_id,omitempty"`
	Hostel    string    `db:"hostel" json:"hostel"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter captures filtering criteria for listing audit entries.
type AuditFilter struct {
	Action   string
	Hostels  []string
	Page     int
	PageSize int
}
