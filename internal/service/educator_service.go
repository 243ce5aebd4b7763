package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type educatorRepository interface {
	List(ctx context.Context, filter models.EducatorFilter) ([]models.Educator, int, error)
	FindByID(ctx context.Context, id string) (*models.Educator, error)
	Create(ctx context.Context, educator *models.Educator) error
	Update(ctx context.Context, educator *models.Educator) error
	Delete(ctx context.Context, id string) error
}

// EducatorService manages the invigilator roster.
type EducatorService struct {
	repo      educatorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEducatorService constructs an EducatorService.
func NewEducatorService(repo educatorRepository, validate *validator.Validate, logger *zap.Logger) *EducatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EducatorService{repo: repo, validator: validate, logger: logger}
}

// List returns educators matching the filter.
func (s *EducatorService) List(ctx context.Context, filter models.EducatorFilter) ([]models.Educator, int, error) {
	educators, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list educators")
	}
	return educators, total, nil
}

// Get fetches one educator.
func (s *EducatorService) Get(ctx context.Context, id string) (*models.Educator, error) {
	educator, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "educator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load educator")
	}
	return educator, nil
}

// Create adds an educator to the roster.
func (s *EducatorService) Create(ctx context.Context, req dto.EducatorRequest) (*models.Educator, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid educator payload")
	}

	educator := &models.Educator{}
	applyEducatorRequest(educator, req)
	if err := s.repo.Create(ctx, educator); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create educator")
	}

	s.logger.Info("created educator", zap.String("educatorId", educator.ID))
	return educator, nil
}

// Update modifies an educator.
func (s *EducatorService) Update(ctx context.Context, id string, req dto.EducatorRequest) (*models.Educator, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid educator payload")
	}

	educator, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyEducatorRequest(educator, req)
	if err := s.repo.Update(ctx, educator); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update educator")
	}
	return educator, nil
}

// Delete removes an educator from the roster.
func (s *EducatorService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete educator")
	}
	s.logger.Info("deleted educator", zap.String("educatorId", id))
	return nil
}

func applyEducatorRequest(educator *models.Educator, req dto.EducatorRequest) {
	educator.FullName = strings.TrimSpace(req.FullName)
	educator.Email = normalizeOptional(req.Email)
	educator.Phone = normalizeOptional(req.Phone)
	educator.Department = normalizeOptional(req.Department)
	educator.MaxSessionsPerDay = req.MaxSessionsPerDay
	educator.PreferredTimes = pq.StringArray(trimAll(req.PreferredTimes))
	educator.UnavailableDates = pq.StringArray(trimAll(req.UnavailableDates))
}

// normalizeOptional trims an optional string and drops it entirely when
// empty.
func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
