// Package services holds the application services behind the HTTP API.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/server/models"
	"github.com/fixhost/fixhost/internal/server/repositories/tickets"
	"github.com/fixhost/fixhost/internal/server/repositories/updates"
)

// TxRunner runs fn against transactional views of the ticket and update
// repositories. Both writes commit or roll back together.
type TxRunner interface {
	InTicketTx(ctx context.Context, fn func(ctx context.Context, t tickets.Repository, u updates.Repository) error) error
}

// TicketService implements the maintenance-ticket workflow: creation with
// a priority-derived deadline, filtered listing, the three-step status
// transition and the audit trail.
type TicketService struct {
	tickets tickets.Repository
	updates updates.Repository
	tx      TxRunner
}

func NewTicketService(ticketRepo tickets.Repository, updateRepo updates.Repository, tx TxRunner) *TicketService {
	return &TicketService{tickets: ticketRepo, updates: updateRepo, tx: tx}
}

// CreateTicketInput carries the fields a user fills in when opening a
// chamado.
type CreateTicketInput struct {
	RoomID      string
	Category    string
	Priority    string
	Title       string
	Description string
	CreatedBy   string
}

func (s *TicketService) Create(ctx context.Context, in CreateTicketInput) (*models.Ticket, error) {
	if in.RoomID == "" {
		return nil, fmt.Errorf("%w: room is required", common.ErrorInvalidRequest)
	}
	if !models.ValidPriority(in.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", common.ErrorInvalidRequest, in.Priority)
	}

	t := &models.Ticket{
		RoomID:      in.RoomID,
		Category:    in.Category,
		Priority:    in.Priority,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusOpen,
		CreatedBy:   in.CreatedBy,
		DueAt:       time.Now().Add(models.DueAfter(in.Priority)),
	}

	// A ticket is born with its first history row.
	err := s.tx.InTicketTx(ctx, func(ctx context.Context, tr tickets.Repository, ur updates.Repository) error {
		id, err := tr.Create(ctx, t)
		if err != nil {
			return fmt.Errorf("error creating ticket: %w", err)
		}
		t.ID = id

		return ur.Create(ctx, &models.TicketUpdate{
			TicketID:  id,
			NewStatus: models.StatusOpen,
			Comment:   "Chamado aberto",
			CreatedBy: in.CreatedBy,
		})
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *TicketService) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

func (s *TicketService) List(ctx context.Context, f tickets.Filter) ([]*models.Ticket, error) {
	return s.tickets.List(ctx, f)
}

// ChangeStatus advances a ticket through the workflow and records the
// transition in the audit trail. Resolving a ticket stamps closed_at;
// reopening clears it.
func (s *TicketService) ChangeStatus(ctx context.Context, id int64, newStatus, actor string) error {
	if !models.ValidStatus(newStatus) {
		return fmt.Errorf("%w: unknown status %q", common.ErrorInvalidRequest, newStatus)
	}

	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == newStatus {
		return nil
	}

	var closedAt *time.Time
	if newStatus == models.StatusResolved {
		now := time.Now()
		closedAt = &now
	}

	comment := "Status atualizado"
	if newStatus == models.StatusResolved {
		comment = "Resolvido"
	}

	// The status row and its audit entry move together.
	return s.tx.InTicketTx(ctx, func(ctx context.Context, tr tickets.Repository, ur updates.Repository) error {
		if err := tr.UpdateStatus(ctx, id, newStatus, closedAt); err != nil {
			return fmt.Errorf("error updating status: %w", err)
		}

		err := ur.Create(ctx, &models.TicketUpdate{
			TicketID:  id,
			OldStatus: t.Status,
			NewStatus: newStatus,
			Comment:   comment,
			CreatedBy: actor,
		})
		if err != nil {
			return fmt.Errorf("error writing audit row: %w", err)
		}

		return nil
	})
}

// AddComment appends a free-text comment to a ticket's history.
func (s *TicketService) AddComment(ctx context.Context, id int64, comment, actor string) error {
	if comment == "" {
		return fmt.Errorf("%w: comment is empty", common.ErrorInvalidRequest)
	}

	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.updates.Create(ctx, &models.TicketUpdate{
		TicketID:  id,
		Comment:   comment,
		CreatedBy: actor,
	})
	if err != nil {
		return fmt.Errorf("error adding comment: %w", err)
	}
	return nil
}

func (s *TicketService) History(ctx context.Context, id int64) ([]*models.TicketUpdate, error) {
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.updates.ListByTicket(ctx, id)
}
