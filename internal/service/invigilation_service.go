package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jagesaurus/invigilation-api/internal/allocator"
	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type invigilationExamReader interface {
	ListByPeriod(ctx context.Context, fromDate, toDate string) ([]models.Exam, error)
}

type invigilationRoomReader interface {
	ListAvailable(ctx context.Context) ([]models.Room, error)
}

type invigilationEducatorReader interface {
	ListAll(ctx context.Context) ([]models.Educator, error)
	FindByID(ctx context.Context, id string) (*models.Educator, error)
}

type invigilationSettingsReader interface {
	Get(ctx context.Context) (models.Settings, error)
}

type invigilationScheduleStore interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, page, pageSize int) ([]models.Schedule, int, error)
	ListSessions(ctx context.Context, scheduleID string) ([]models.Session, error)
	ListSessionsByEducatorOnDate(ctx context.Context, educatorID, date string) ([]models.Session, error)
	FindSession(ctx context.Context, sessionID string) (*models.Session, error)
	SessionScheduleID(ctx context.Context, sessionID string) (string, error)
	ReassignSession(ctx context.Context, sessionID, educatorID, educatorName string, notes *string) error
	Delete(ctx context.Context, id string) error
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// InvigilationService orchestrates schedule generation, persistence,
// validation, fairness reporting and substitutions.
type InvigilationService struct {
	exams     invigilationExamReader
	rooms     invigilationRoomReader
	educators invigilationEducatorReader
	settings  invigilationSettingsReader
	schedules invigilationScheduleStore
	cache     reportCache
	validator *validator.Validate
	logger    *zap.Logger
	store     *proposalStore

	fairnessTTL time.Duration
}

// InvigilationConfig governs proposal and cache lifetimes.
type InvigilationConfig struct {
	ProposalTTL      time.Duration
	FairnessCacheTTL time.Duration
}

// NewInvigilationService wires scheduling dependencies.
func NewInvigilationService(
	exams invigilationExamReader,
	rooms invigilationRoomReader,
	educators invigilationEducatorReader,
	settings invigilationSettingsReader,
	schedules invigilationScheduleStore,
	cache reportCache,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg InvigilationConfig,
) *InvigilationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.FairnessCacheTTL <= 0 {
		cfg.FairnessCacheTTL = 5 * time.Minute
	}
	return &InvigilationService{
		exams:       exams,
		rooms:       rooms,
		educators:   educators,
		settings:    settings,
		schedules:   schedules,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		store:       newProposalStore(cfg.ProposalTTL),
		fairnessTTL: cfg.FairnessCacheTTL,
	}
}

// Generate builds a schedule proposal for the requested exam period. The
// proposal is held in memory until saved or expired; nothing is persisted.
func (s *InvigilationService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate request")
	}
	if req.EndDate < req.StartDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	settings, err := s.resolveSettings(ctx, req.Settings)
	if err != nil {
		return nil, err
	}

	exams, err := s.exams.ListByPeriod(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load exams")
	}
	if len(exams) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no exams scheduled in the requested period")
	}

	rooms, err := s.rooms.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load rooms")
	}
	educators, err := s.educators.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load educators")
	}

	schedule, err := allocator.Generate(exams, rooms, educators, settings)
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrInsufficientCapacity):
			return nil, appErrors.Wrap(err, appErrors.ErrInsufficientCapacity.Code, appErrors.ErrInsufficientCapacity.Status, err.Error())
		case errors.Is(err, allocator.ErrExamNotSchedulable):
			return nil, appErrors.Wrap(err, appErrors.ErrExamNotSchedulable.Code, appErrors.ErrExamNotSchedulable.Status, err.Error())
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generate schedule")
		}
	}

	proposal := scheduleProposal{
		ProposalID:  uuid.NewString(),
		Name:        req.Name,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Settings:    settings,
		Schedule:    schedule,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Info("generated invigilation proposal",
		zap.String("proposalId", proposal.ProposalID),
		zap.Int("exams", len(exams)),
		zap.Int("sessions", len(schedule.Sessions)),
		zap.Int("conflicts", len(schedule.Conflicts)))

	return s.proposalResponse(proposal, educators), nil
}

// Save persists a generated proposal as a schedule. Conflicts recorded on
// the proposal are kept advisory; the caller has seen them in the proposal
// payload.
func (s *InvigilationService) Save(ctx context.Context, req dto.SaveScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save request")
	}

	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}

	schedule := &models.Schedule{
		Name:      proposal.Name,
		StartDate: proposal.StartDate,
		EndDate:   proposal.EndDate,
		Settings:  proposal.Settings,
		Sessions:  proposal.Schedule.Sessions,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save schedule")
	}
	s.store.Delete(req.ProposalID)

	s.logger.Info("saved invigilation schedule",
		zap.String("scheduleId", schedule.ID),
		zap.Int("sessions", len(schedule.Sessions)))
	return schedule, nil
}

// GetSchedule fetches a saved schedule with its sessions.
func (s *InvigilationService) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
	}
	return schedule, nil
}

// ListSchedules lists saved schedules newest first.
func (s *InvigilationService) ListSchedules(ctx context.Context, page, pageSize int) ([]models.Schedule, int, error) {
	schedules, total, err := s.schedules.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list schedules")
	}
	return schedules, total, nil
}

// DeleteSchedule removes a saved schedule and drops its cached reports.
func (s *InvigilationService) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete schedule")
	}
	s.invalidateFairness(ctx, id)
	return nil
}

// Validate re-checks a session list against the roster and settings.
func (s *InvigilationService) Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validate request")
	}

	educators, err := s.educators.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load educators")
	}
	settings, err := s.resolveSettings(ctx, nil)
	if err != nil {
		return nil, err
	}

	conflicts := allocator.Validate(req.Sessions, educators, settings)
	return &dto.ValidateScheduleResponse{
		Conflicts: conflicts,
		Valid:     !hasErrorConflict(conflicts),
	}, nil
}

// Fairness reports duty distribution for a saved schedule. Reports are
// cached per schedule and invalidated on substitution or deletion.
func (s *InvigilationService) Fairness(ctx context.Context, scheduleID string) (*models.FairnessReport, error) {
	key := fairnessCacheKey(scheduleID)
	if s.cache != nil {
		var cached models.FairnessReport
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("fairness cache read failed", zap.String("scheduleId", scheduleID), zap.Error(err))
		}
	}

	sessions, err := s.schedules.ListSessions(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule sessions")
	}
	if len(sessions) == 0 {
		if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
		}
	}

	educators, err := s.educators.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load educators")
	}

	report := allocator.Fairness(sessions, educators)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.fairnessTTL); err != nil {
			s.logger.Warn("fairness cache write failed", zap.String("scheduleId", scheduleID), zap.Error(err))
		}
	}
	return &report, nil
}

// Substitute reassigns a saved session to another educator, rejecting
// substitutes who are unavailable that date or already booked in an
// overlapping slot.
func (s *InvigilationService) Substitute(ctx context.Context, sessionID string, req dto.SubstituteRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute request")
	}

	session, err := s.schedules.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load session")
	}
	if session.EducatorID == req.EducatorID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session is already assigned to this educator")
	}

	substitute, err := s.educators.FindByID(ctx, req.EducatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "educator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load educator")
	}
	if substitute.UnavailableOn(session.ExamDate) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is unavailable on %s", substitute.FullName, session.ExamDate))
	}

	existing, err := s.schedules.ListSessionsByEducatorOnDate(ctx, req.EducatorID, session.ExamDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load substitute sessions")
	}
	for _, other := range existing {
		if other.ID == session.ID {
			continue
		}
		if allocator.SessionsOverlap(*session, other) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s already invigilates an overlapping session on %s", substitute.FullName, session.ExamDate))
		}
	}

	notes := fmt.Sprintf("substituted: %s -> %s", session.EducatorName, substitute.FullName)
	if req.Reason != nil && *req.Reason != "" {
		notes = fmt.Sprintf("%s (%s)", notes, *req.Reason)
	}
	if err := s.schedules.ReassignSession(ctx, sessionID, substitute.ID, substitute.FullName, &notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reassign session")
	}

	if scheduleID, err := s.schedules.SessionScheduleID(ctx, sessionID); err == nil {
		s.invalidateFairness(ctx, scheduleID)
	}

	session.EducatorID = substitute.ID
	session.EducatorName = substitute.FullName
	session.Notes = &notes

	s.logger.Info("substituted invigilator",
		zap.String("sessionId", sessionID),
		zap.String("educatorId", substitute.ID))
	return session, nil
}

func (s *InvigilationService) resolveSettings(ctx context.Context, override *models.Settings) (models.Settings, error) {
	if override != nil {
		return *override, nil
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.Settings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load settings")
	}
	return settings, nil
}

func (s *InvigilationService) proposalResponse(proposal scheduleProposal, educators []models.Educator) *dto.ScheduleProposalResponse {
	return &dto.ScheduleProposalResponse{
		ProposalID:  proposal.ProposalID,
		Name:        proposal.Name,
		StartDate:   proposal.StartDate,
		EndDate:     proposal.EndDate,
		Assignments: proposal.Schedule.Assignments,
		Sessions:    proposal.Schedule.Sessions,
		Conflicts:   proposal.Schedule.Conflicts,
		Fairness:    allocator.Fairness(proposal.Schedule.Sessions, educators),
		ExpiresAt:   proposal.RequestedAt.Add(s.store.ttl).Format(time.RFC3339),
	}
}

func (s *InvigilationService) invalidateFairness(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fairnessCacheKey(scheduleID)); err != nil {
		s.logger.Warn("fairness cache invalidation failed", zap.String("scheduleId", scheduleID), zap.Error(err))
	}
}

func fairnessCacheKey(scheduleID string) string {
	return "invigilation:fairness:" + scheduleID
}

func hasErrorConflict(conflicts []models.Conflict) bool {
	for _, conflict := range conflicts {
		if conflict.Severity == models.SeverityError {
			return true
		}
	}
	return false
}

// --- Proposal cache ---

type scheduleProposal struct {
	ProposalID  string
	Name        string
	StartDate   string
	EndDate     string
	Settings    models.Settings
	Schedule    allocator.Schedule
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
