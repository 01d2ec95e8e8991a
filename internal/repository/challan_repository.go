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

const challanColumns = `id, number, student_id, registration_number, student_name, hostel_name, semester,
        amount, status, issued_at, paid_at, created_at`

// ChallanRepository manages persistence for fee challans.
type ChallanRepository struct {
	db *sqlx.DB
}

// NewChallanRepository constructs a ChallanRepository.
func NewChallanRepository(db *sqlx.DB) *ChallanRepository {
	return &ChallanRepository{db: db}
}

// List returns challans matching the provided filters. Hostels, when
// non-empty, restricts results to those hostels (warden scoping).
func (r *ChallanRepository) List(ctx context.Context, filter models.ChallanFilter, hostels []string) ([]models.Challan, int, error) {
	base := "FROM challans"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Hostel != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(hostel_name) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Hostel)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(number ILIKE $%d OR registration_number ILIKE $%d OR student_name ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(hostels) > 0 {
		lowered := make([]string, len(hostels))
		for i, h := range hostels {
			lowered[i] = strings.ToLower(h)
		}
		conditions = append(conditions, fmt.Sprintf("LOWER(hostel_name) = ANY($%d)", len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY issued_at DESC LIMIT %d OFFSET %d", challanColumns, base, size, offset)

	var challans []models.Challan
	if err := r.db.SelectContext(ctx, &challans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list challans: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count challans: %w", err)
	}
	return challans, total, nil
}

// FindByID fetches a challan by ID.
func (r *ChallanRepository) FindByID(ctx context.Context, id string) (*models.Challan, error) {
	query := fmt.Sprintf("SELECT %s FROM challans WHERE id = $1", challanColumns)
	var challan models.Challan
	if err := r.db.GetContext(ctx, &challan, query, id); err != nil {
		return nil, err
	}
	return &challan, nil
}

// Create inserts a new challan record.
func (r *ChallanRepository) Create(ctx context.Context, challan *models.Challan) error {
	if challan.ID == "" {
		challan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if challan.IssuedAt.IsZero() {
		challan.IssuedAt = now
	}
	if challan.CreatedAt.IsZero() {
		challan.CreatedAt = now
	}
	const query = `INSERT INTO challans (id, number, student_id, registration_number, student_name, hostel_name, semester, amount, status, issued_at, paid_at, created_at)
        VALUES (:id, :number, :student_id, :registration_number, :student_name, :hostel_name, :semester, :amount, :status, :issued_at, :paid_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, challan); err != nil {
		return fmt.Errorf("create challan: %w", err)
	}
	return nil
}

// MarkPaid flips a challan to PAID with the given settlement time.
func (r *ChallanRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	const query = `UPDATE challans SET status = $2, paid_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ChallanStatusPaid, paidAt); err != nil {
		return fmt.Errorf("mark challan paid: %w", err)
	}
	return nil
}

// DeleteByStudentIDs removes challans for the given students and reports
// how many rows went.
func (r *ChallanRepository) DeleteByStudentIDs(ctx context.Context, studentIDs []string) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM challans WHERE student_id = ANY($1)", pq.Array(studentIDs))
	if err != nil {
		return 0, fmt.Errorf("delete challans: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountPending returns the number of unsettled challans.
func (r *ChallanRepository) CountPending(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM challans WHERE status = $1", models.ChallanStatusPending); err != nil {
		return 0, fmt.Errorf("count pending challans: %w", err)
	}
	return total, nil
}
