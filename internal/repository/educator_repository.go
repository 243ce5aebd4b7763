package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jagesaurus/invigilation-api/internal/models"
)

const educatorColumns = "id, full_name, email, phone, department, max_sessions_per_day, preferred_times, unavailable_dates, created_at, updated_at"

// EducatorRepository manages persistence for educators.
type EducatorRepository struct {
	db *sqlx.DB
}

// NewEducatorRepository constructs an EducatorRepository.
func NewEducatorRepository(db *sqlx.DB) *EducatorRepository {
	return &EducatorRepository{db: db}
}

// List returns educators matching filters along with total count.
func (r *EducatorRepository) List(ctx context.Context, filter models.EducatorFilter) ([]models.Educator, int, error) {
	base := "FROM educators WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(COALESCE(email, '')) LIKE $%d OR LOWER(COALESCE(department, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "full_name"
	}
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"department": "department",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "full_name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", educatorColumns, base, column, order, size, offset)
	var educators []models.Educator
	if err := r.db.SelectContext(ctx, &educators, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list educators: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count educators: %w", err)
	}

	return educators, total, nil
}

// ListAll fetches the full roster ordered by name, used by schedule
// generation where input order decides assignment ties.
func (r *EducatorRepository) ListAll(ctx context.Context) ([]models.Educator, error) {
	query := fmt.Sprintf("SELECT %s FROM educators ORDER BY full_name ASC, id ASC", educatorColumns)
	var educators []models.Educator
	if err := r.db.SelectContext(ctx, &educators, query); err != nil {
		return nil, fmt.Errorf("list all educators: %w", err)
	}
	return educators, nil
}

// FindByID fetches an educator by ID.
func (r *EducatorRepository) FindByID(ctx context.Context, id string) (*models.Educator, error) {
	query := fmt.Sprintf("SELECT %s FROM educators WHERE id = $1", educatorColumns)
	var educator models.Educator
	if err := r.db.GetContext(ctx, &educator, query, id); err != nil {
		return nil, err
	}
	return &educator, nil
}

// Create inserts a new educator record.
func (r *EducatorRepository) Create(ctx context.Context, educator *models.Educator) error {
	if educator.ID == "" {
		educator.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if educator.CreatedAt.IsZero() {
		educator.CreatedAt = now
	}
	educator.UpdatedAt = now

	const query = `INSERT INTO educators (id, full_name, email, phone, department, max_sessions_per_day, preferred_times, unavailable_dates, created_at, updated_at)
		VALUES (:id, :full_name, :email, :phone, :department, :max_sessions_per_day, :preferred_times, :unavailable_dates, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, educator); err != nil {
		return fmt.Errorf("create educator: %w", err)
	}
	return nil
}

// Update modifies an existing educator record.
func (r *EducatorRepository) Update(ctx context.Context, educator *models.Educator) error {
	educator.UpdatedAt = time.Now().UTC()
	const query = `UPDATE educators SET full_name = :full_name, email = :email, phone = :phone, department = :department, max_sessions_per_day = :max_sessions_per_day, preferred_times = :preferred_times, unavailable_dates = :unavailable_dates, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, educator); err != nil {
		return fmt.Errorf("update educator: %w", err)
	}
	return nil
}

// Delete removes an educator record.
func (r *EducatorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM educators WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete educator: %w", err)
	}
	return nil
}
