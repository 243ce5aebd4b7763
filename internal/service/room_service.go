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

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
	SetAvailability(ctx context.Context, id string, available bool) error
}

// RoomService manages exam rooms and halls.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns rooms matching the filter.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
	}
	return rooms, total, nil
}

// Get fetches one room.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	return room, nil
}

// Create adds a room.
func (s *RoomService) Create(ctx context.Context, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	room := &models.Room{IsAvailable: true}
	applyRoomRequest(room, req)
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create room")
	}

	s.logger.Info("created room", zap.String("roomId", room.ID), zap.String("kind", string(room.Kind)))
	return room, nil
}

// Update modifies a room.
func (s *RoomService) Update(ctx context.Context, id string, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyRoomRequest(room, req)
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update room")
	}
	return room, nil
}

// Delete removes a room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete room")
	}
	s.logger.Info("deleted room", zap.String("roomId", id))
	return nil
}

// SetAvailability toggles whether a room can be allocated.
func (s *RoomService) SetAvailability(ctx context.Context, id string, available bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "set room availability")
	}
	return nil
}

func applyRoomRequest(room *models.Room, req dto.RoomRequest) {
	room.Name = strings.TrimSpace(req.Name)
	room.Capacity = req.Capacity
	room.Kind = models.RoomKind(req.Kind)
	room.Building = normalizeOptional(req.Building)
	room.Floor = normalizeOptional(req.Floor)
	if req.IsAvailable != nil {
		room.IsAvailable = *req.IsAvailable
	}
	room.Sections = pq.StringArray(trimAll(req.Sections))
	room.RequiresMultipleInvigilators = req.RequiresMultipleInvigilators
	room.InvigilatorsPerSection = req.InvigilatorsPerSection
	if room.Kind == models.RoomKindHall && room.RequiresMultipleInvigilators && room.InvigilatorsPerSection < 1 {
		room.InvigilatorsPerSection = 1
	}
}
