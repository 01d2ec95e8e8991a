package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hms-go/hms-api/internal/models"
)

// AuditRepository manages persistence for audit trail records.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, username, action, message, subject_id, hostel, ip_address, created_at)
        VALUES (:id, :user_id, :username, :action, :message, :subject_id, :hostel, :ip_address, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns audit entries matching the provided filters, newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	base := "FROM audit_logs"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, filter.Action)
	}
	if len(filter.Hostels) > 0 {
		lowered := make([]string, len(filter.Hostels))
		for i, h := range filter.Hostels {
			lowered[i] = strings.ToLower(h)
		}
		conditions = append(conditions, fmt.Sprintf("LOWER(hostel) = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(lowered))
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, user_id, username, action, message, subject_id, hostel, ip_address, created_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	return logs, total, nil
}

// DeleteBySubjectIDs removes entries whose subject id matches any of the
// given registration numbers. This is the primary cleanup path.
func (r *AuditRepository) DeleteBySubjectIDs(ctx context.Context, subjectIDs []string) (int, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM audit_logs WHERE subject_id = ANY($1)", pq.Array(subjectIDs))
	if err != nil {
		return 0, fmt.Errorf("delete audit logs by subject: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteByMessageMatch removes entries whose free-text message mentions any
// of the given registration numbers. Only rows written before subject ids
// existed need this; callers bound the list size.
func (r *AuditRepository) DeleteByMessageMatch(ctx context.Context, registrations []string) (int, error) {
	if len(registrations) == 0 {
		return 0, nil
	}
	patterns := make([]string, len(registrations))
	for i, reg := range registrations {
		patterns[i] = "%" + reg + "%"
	}
	const query = `DELETE FROM audit_logs WHERE subject_id IS NULL AND message ILIKE ANY($1)`
	res, err := r.db.ExecContext(ctx, query, pq.Array(patterns))
	if err != nil {
		return 0, fmt.Errorf("delete audit logs by message: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
