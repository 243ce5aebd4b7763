package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
}

// ExamService manages the exam timetable.
type ExamService struct {
	repo      examRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(repo examRepository, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, validator: validate, logger: logger}
}

// List returns exams matching the filter.
func (s *ExamService) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	exams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list exams")
	}
	return exams, total, nil
}

// Get fetches one exam.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load exam")
	}
	return exam, nil
}

// Create adds an exam.
func (s *ExamService) Create(ctx context.Context, req dto.ExamRequest) (*models.Exam, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	exam := &models.Exam{}
	applyExamRequest(exam, req)
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create exam")
	}

	s.logger.Info("created exam", zap.String("examId", exam.ID), zap.String("date", exam.Date))
	return exam, nil
}

// Update modifies an exam.
func (s *ExamService) Update(ctx context.Context, id string, req dto.ExamRequest) (*models.Exam, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyExamRequest(exam, req)
	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update exam")
	}
	return exam, nil
}

// Delete removes an exam.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete exam")
	}
	s.logger.Info("deleted exam", zap.String("examId", id))
	return nil
}

func (s *ExamService) validateRequest(req dto.ExamRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	if req.EndTime <= req.StartTime {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return nil
}

func applyExamRequest(exam *models.Exam, req dto.ExamRequest) {
	exam.PaperName = strings.TrimSpace(req.PaperName)
	exam.PaperNumber = normalizeOptional(req.PaperNumber)
	exam.ClassName = normalizeOptional(req.ClassName)
	exam.Date = req.Date
	exam.StartTime = req.StartTime
	exam.EndTime = req.EndTime
	exam.DurationMin = clockSpanMinutes(req.StartTime, req.EndTime)
	exam.StudentCount = req.StudentCount
}

// clockSpanMinutes computes the span between two HH:MM values. Inputs are
// already format-validated by the DTO rules.
func clockSpanMinutes(start, end string) int {
	toMinutes := func(v string) int {
		if len(v) != 5 {
			return 0
		}
		hour := int(v[0]-'0')*10 + int(v[1]-'0')
		minute := int(v[3]-'0')*10 + int(v[4]-'0')
		return hour*60 + minute
	}
	span := toMinutes(end) - toMinutes(start)
	if span < 0 {
		span = -span
	}
	return span
}
