package updates

import (
	"context"

	"github.com/fixhost/fixhost/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, u *models.TicketUpdate) error
	ListByTicket(ctx context.Context, ticketID int64) ([]*models.TicketUpdate, error)
}
