package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/server/models"
	"github.com/fixhost/fixhost/internal/server/repositories/rooms"
)

// RoomService manages the room catalogue tickets are opened against.
type RoomService struct {
	repo rooms.Repository
}

func NewRoomService(repo rooms.Repository) *RoomService {
	return &RoomService{repo: repo}
}

func (s *RoomService) Create(ctx context.Context, code string, floor int) (*models.Room, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: room code is required", common.ErrorInvalidRequest)
	}

	room := &models.Room{
		ID:    uuid.NewString(),
		Code:  code,
		Floor: floor,
	}

	if err := s.repo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("error creating room: %w", err)
	}

	return room, nil
}

func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RoomService) List(ctx context.Context) ([]*models.Room, error) {
	return s.repo.List(ctx)
}
