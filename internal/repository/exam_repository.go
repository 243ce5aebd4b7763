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

const examColumns = "id, paper_name, paper_number, class_name, exam_date, start_time, end_time, duration_min, student_count, created_at, updated_at"

// ExamRepository manages persistence for exams.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// List returns exams matching filters along with total count.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	base := "FROM exams WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(paper_name) LIKE $%d OR LOWER(COALESCE(class_name, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("exam_date = $%d", len(args)+1))
		args = append(args, filter.Date)
	}
	if filter.FromDate != "" {
		conditions = append(conditions, fmt.Sprintf("exam_date >= $%d", len(args)+1))
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		conditions = append(conditions, fmt.Sprintf("exam_date <= $%d", len(args)+1))
		args = append(args, filter.ToDate)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "exam_date"
	}
	allowedSorts := map[string]string{
		"exam_date":  "exam_date",
		"paper_name": "paper_name",
		"start_time": "start_time",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "exam_date"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", examColumns, base, column, order, size, offset)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}

	return exams, total, nil
}

// ListByPeriod fetches every exam in an inclusive date range, ordered by
// date then start time so generation processes them deterministically.
func (r *ExamRepository) ListByPeriod(ctx context.Context, fromDate, toDate string) ([]models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE exam_date >= $1 AND exam_date <= $2 ORDER BY exam_date ASC, start_time ASC, id ASC", examColumns)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, fromDate, toDate); err != nil {
		return nil, fmt.Errorf("list exams by period: %w", err)
	}
	return exams, nil
}

// FindByID fetches an exam by ID.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// Create inserts a new exam record.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now

	const query = `INSERT INTO exams (id, paper_name, paper_number, class_name, exam_date, start_time, end_time, duration_min, student_count, created_at, updated_at)
		VALUES (:id, :paper_name, :paper_number, :class_name, :exam_date, :start_time, :end_time, :duration_min, :student_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update modifies an existing exam record.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET paper_name = :paper_name, paper_number = :paper_number, class_name = :class_name, exam_date = :exam_date, start_time = :start_time, end_time = :end_time, duration_min = :duration_min, student_count = :student_count, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// Delete removes an exam record.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}
