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

// AssignmentRepository manages current room assignments and imported legacy
// allotments. Legacy rows are read-only after import and only ever removed
// as part of a deletion cascade.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByHostelVariants returns current assignments whose hostel name
// matches any of the given variants, case-insensitively.
func (r *AssignmentRepository) ListByHostelVariants(ctx context.Context, variants []string) ([]models.RoomAssignment, error) {
	lowered := make([]string, len(variants))
	for i, v := range variants {
		lowered[i] = strings.ToLower(v)
	}
	const query = `SELECT id, hostel_id, hostel_name, room_id, student_id, student_name, registration_number, department, assigned_at
        FROM room_assignments WHERE LOWER(hostel_name) = ANY($1) ORDER BY room_id, student_name`
	var assignments []models.RoomAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(lowered)); err != nil {
		return nil, fmt.Errorf("list assignments by hostel: %w", err)
	}
	return assignments, nil
}

// ReplaceRoom swaps a room's assignment rows for the given set inside one
// transaction. Rooms are always rebuilt wholesale from the live registry,
// never patched row by row.
func (r *AssignmentRepository) ReplaceRoom(ctx context.Context, hostelName, roomID string, assignments []models.RoomAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace room: %w", err)
	}
	defer tx.Rollback()

	const del = `DELETE FROM room_assignments WHERE LOWER(hostel_name) = LOWER($1) AND room_id = $2`
	if _, err := tx.ExecContext(ctx, del, hostelName, roomID); err != nil {
		return fmt.Errorf("clear room assignments: %w", err)
	}

	const ins = `INSERT INTO room_assignments (id, hostel_id, hostel_name, room_id, student_id, student_name, registration_number, department, assigned_at)
        VALUES (:id, :hostel_id, :hostel_name, :room_id, :student_id, :student_name, :registration_number, :department, :assigned_at)`
	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		if assignments[i].AssignedAt.IsZero() {
			assignments[i].AssignedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, ins, assignments[i]); err != nil {
			return fmt.Errorf("insert room assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace room: %w", err)
	}
	return nil
}

// DeleteByStudentIDs removes assignments for the given students and
// reports how many rows went.
func (r *AssignmentRepository) DeleteByStudentIDs(ctx context.Context, studentIDs []string) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM room_assignments WHERE student_id = ANY($1)", pq.Array(studentIDs))
	if err != nil {
		return 0, fmt.Errorf("delete assignments: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteByHostelVariants removes every assignment of a hostel.
func (r *AssignmentRepository) DeleteByHostelVariants(ctx context.Context, variants []string) (int, error) {
	lowered := make([]string, len(variants))
	for i, v := range variants {
		lowered[i] = strings.ToLower(v)
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM room_assignments WHERE LOWER(hostel_name) = ANY($1)", pq.Array(lowered))
	if err != nil {
		return 0, fmt.Errorf("delete hostel assignments: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListLegacyByHostelVariants returns imported legacy allotments whose
// hostel name matches any of the given variants.
func (r *AssignmentRepository) ListLegacyByHostelVariants(ctx context.Context, variants []string) ([]models.LegacyAllotment, error) {
	lowered := make([]string, len(variants))
	for i, v := range variants {
		lowered[i] = strings.ToLower(v)
	}
	const query = `SELECT id, hostel_name, room_id, student_name, registration_number, department, imported_at
        FROM legacy_allotments WHERE LOWER(hostel_name) = ANY($1) ORDER BY room_id, student_name`
	var allotments []models.LegacyAllotment
	if err := r.db.SelectContext(ctx, &allotments, query, pq.Array(lowered)); err != nil {
		return nil, fmt.Errorf("list legacy allotments: %w", err)
	}
	return allotments, nil
}
