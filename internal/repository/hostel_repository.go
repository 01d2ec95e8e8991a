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

// HostelRepository manages persistence for hostel records.
type HostelRepository struct {
	db *sqlx.DB
}

// NewHostelRepository constructs a HostelRepository.
func NewHostelRepository(db *sqlx.DB) *HostelRepository {
	return &HostelRepository{db: db}
}

// List returns hostels matching the provided filters.
func (r *HostelRepository) List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, int, error) {
	base := "FROM hostels"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":       "name",
		"capacity":   "total_capacity",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT id, name, capacity_per_room, number_of_rooms, number_of_blocks, blocks, total_capacity, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var hostels []models.Hostel
	if err := r.db.SelectContext(ctx, &hostels, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list hostels: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count hostels: %w", err)
	}
	return hostels, total, nil
}

// FindByID fetches a hostel by ID.
func (r *HostelRepository) FindByID(ctx context.Context, id string) (*models.Hostel, error) {
	const query = `SELECT id, name, capacity_per_room, number_of_rooms, number_of_blocks, blocks, total_capacity, created_at, updated_at
        FROM hostels WHERE id = $1`
	var hostel models.Hostel
	if err := r.db.GetContext(ctx, &hostel, query, id); err != nil {
		return nil, err
	}
	return &hostel, nil
}

// FindByNameVariants fetches the hostel whose stored name matches any of
// the given name variants, case-insensitively.
func (r *HostelRepository) FindByNameVariants(ctx context.Context, variants []string) (*models.Hostel, error) {
	lowered := make([]string, len(variants))
	for i, v := range variants {
		lowered[i] = strings.ToLower(v)
	}
	const query = `SELECT id, name, capacity_per_room, number_of_rooms, number_of_blocks, blocks, total_capacity, created_at, updated_at
        FROM hostels WHERE LOWER(name) = ANY($1) LIMIT 1`
	var hostel models.Hostel
	if err := r.db.GetContext(ctx, &hostel, query, pq.Array(lowered)); err != nil {
		return nil, err
	}
	return &hostel, nil
}

// ExistsByName checks if a hostel with the given name exists, optionally
// excluding an ID.
func (r *HostelRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM hostels WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check hostel name: %w", err)
	}
	return true, nil
}

// Create inserts a new hostel record.
func (r *HostelRepository) Create(ctx context.Context, hostel *models.Hostel) error {
	if hostel.ID == "" {
		hostel.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if hostel.CreatedAt.IsZero() {
		hostel.CreatedAt = now
	}
	hostel.UpdatedAt = now
	const query = `INSERT INTO hostels (id, name, capacity_per_room, number_of_rooms, number_of_blocks, blocks, total_capacity, created_at, updated_at)
        VALUES (:id, :name, :capacity_per_room, :number_of_rooms, :number_of_blocks, :blocks, :total_capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hostel); err != nil {
		return fmt.Errorf("create hostel: %w", err)
	}
	return nil
}

// Update modifies an existing hostel.
func (r *HostelRepository) Update(ctx context.Context, hostel *models.Hostel) error {
	hostel.UpdatedAt = time.Now().UTC()
	const query = `UPDATE hostels SET name = :name, capacity_per_room = :capacity_per_room, number_of_rooms = :number_of_rooms,
        number_of_blocks = :number_of_blocks, blocks = :blocks, total_capacity = :total_capacity, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, hostel); err != nil {
		return fmt.Errorf("update hostel: %w", err)
	}
	return nil
}

// Delete removes a hostel row. Dependent records are removed by the service
// cascade before this runs.
func (r *HostelRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM hostels WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete hostel: %w", err)
	}
	return nil
}

// CountAll returns the number of hostels.
func (r *HostelRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM hostels"); err != nil {
		return 0, fmt.Errorf("count hostels: %w", err)
	}
	return total, nil
}

// SumCapacity returns the aggregate nominal capacity across all hostels.
func (r *HostelRepository) SumCapacity(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COALESCE(SUM(total_capacity), 0) FROM hostels"); err != nil {
		return 0, fmt.Errorf("sum hostel capacity: %w", err)
	}
	return total, nil
}
