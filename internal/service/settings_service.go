package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings) error
}

// SettingsService manages the invigilation settings resource.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return models.Settings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load settings")
	}
	return settings, nil
}

// Update validates and stores new settings.
func (s *SettingsService) Update(ctx context.Context, settings models.Settings) (models.Settings, error) {
	if settings.SessionDuration < 1 {
		return models.Settings{}, appErrors.Clone(appErrors.ErrValidation, "session_duration must be at least 1 minute")
	}
	if settings.BreakBetweenSessions < 0 {
		return models.Settings{}, appErrors.Clone(appErrors.ErrValidation, "break_between_sessions must not be negative")
	}
	if settings.MaxSessionsPerDay < 1 {
		return models.Settings{}, appErrors.Clone(appErrors.ErrValidation, "max_sessions_per_day must be at least 1")
	}
	if settings.MaxConsecutiveSessions < 1 {
		return models.Settings{}, appErrors.Clone(appErrors.ErrValidation, "max_consecutive_sessions must be at least 1")
	}
	if settings.HallInvigilatorRatio < 1 || settings.ClassroomInvigilatorRatio < 1 {
		return models.Settings{}, appErrors.Clone(appErrors.ErrValidation, "invigilator ratios must be at least 1")
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		return models.Settings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save settings")
	}
	s.logger.Info("updated invigilation settings",
		zap.Int("sessionDuration", settings.SessionDuration),
		zap.Int("maxSessionsPerDay", settings.MaxSessionsPerDay))
	return settings, nil
}
