package rooms

import (
	"context"

	"github.com/fixhost/fixhost/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id string) (*models.Room, error)
	List(ctx context.Context) ([]*models.Room, error)
}
