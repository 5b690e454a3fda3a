package tickets

import (
	"context"
	"time"

	"github.com/fixhost/fixhost/internal/server/models"
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status   string
	Priority string
	Query    string
}

type Repository interface {
	Create(ctx context.Context, t *models.Ticket) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	List(ctx context.Context, f Filter) ([]*models.Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status string, closedAt *time.Time) error

	// GetPhotoURLs / SetPhotoURLs read and replace the whole photo
	// reference array; reconciliation never appends at the storage layer.
	GetPhotoURLs(ctx context.Context, id int64) ([]string, error)
	SetPhotoURLs(ctx context.Context, id int64, urls []string) error
}
