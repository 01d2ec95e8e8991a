package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hms-go/hms-api/internal/models"
)

const studentColumns = `id, name, father_name, registration_number, department, batch, district, phone,
        hostel_name, room_number, hostel_fee, fee_table, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters. Hostels, when
// non-empty, restricts results to those hostels (warden scoping).
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter, hostels []string) ([]models.Student, int, error) {
	base := "FROM students"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Hostel != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(hostel_name) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Hostel)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Batch+"%")
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR registration_number ILIKE $%d OR department ILIKE $%d OR hostel_name ILIKE $%d OR district ILIKE $%d)",
			n, n, n, n, n))
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

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":         "name",
		"registration": "registration_number",
		"hostel":       "hostel_name",
		"created_at":   "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByRegistration fetches a student by registration number,
// case-insensitively.
func (r *StudentRepository) FindByRegistration(ctx context.Context, reg string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE LOWER(registration_number) = LOWER($1)", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, reg); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByRegistration checks if a student with the given registration
// number exists, optionally excluding an ID.
func (r *StudentRepository) ExistsByRegistration(ctx context.Context, reg string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE LOWER(registration_number) = LOWER($1)"
	args := []interface{}{reg}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// ListByHostelVariants returns every student whose stored hostel name
// matches any of the given name variants, case-insensitively.
func (r *StudentRepository) ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error) {
	lowered := make([]string, len(variants))
	for i, v := range variants {
		lowered[i] = strings.ToLower(v)
	}
	query := fmt.Sprintf("SELECT %s FROM students WHERE LOWER(hostel_name) = ANY($1) ORDER BY room_number, name", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(lowered)); err != nil {
		return nil, fmt.Errorf("list students by hostel: %w", err)
	}
	return students, nil
}

// ListByDepartmentBatch returns students of a department whose batch
// contains the given substring.
func (r *StudentRepository) ListByDepartmentBatch(ctx context.Context, department, batch string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students
        WHERE LOWER(department) = LOWER($1) AND batch ILIKE $2`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, department, "%"+batch+"%"); err != nil {
		return nil, fmt.Errorf("list students by department batch: %w", err)
	}
	return students, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, name, father_name, registration_number, department, batch, district, phone,
        hostel_name, room_number, hostel_fee, fee_table, created_at, updated_at)
        VALUES (:id, :name, :father_name, :registration_number, :department, :batch, :district, :phone,
        :hostel_name, :room_number, :hostel_fee, :fee_table, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, father_name = :father_name, registration_number = :registration_number,
        department = :department, batch = :batch, district = :district, phone = :phone, hostel_name = :hostel_name,
        room_number = :room_number, hostel_fee = :hostel_fee, fee_table = :fee_table, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// DeleteByIDs removes the given students and reports how many rows went.
func (r *StudentRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete students: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountAll returns the number of registered students.
func (r *StudentRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountOverdue returns the number of students with an empty fee table or
// any pending semester.
func (r *StudentRepository) CountOverdue(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM students
        WHERE fee_table = '{}'::jsonb
        OR EXISTS (SELECT 1 FROM jsonb_each_text(fee_table) kv WHERE kv.value = $1)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, models.FeeStatusPending); err != nil {
		return 0, fmt.Errorf("count overdue students: %w", err)
	}
	return total, nil
}
