// Package updates provides the PostgreSQL-backed repository for ticket
// history rows (status transitions, comments, attached photos).
package updates

import (
	"context"
	"fmt"

	"github.com/fixhost/fixhost/internal/dbx"
	"github.com/fixhost/fixhost/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.TicketUpdate) error {
	query := `
		INSERT INTO ticket_updates (ticket_id, old_status, new_status, comment, photo_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.db.ExecContext(ctx, query,
		u.TicketID, u.OldStatus, u.NewStatus, u.Comment, u.PhotoURL, u.CreatedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*models.TicketUpdate, error) {
	query := `
		SELECT id, ticket_id, COALESCE(old_status, ''), COALESCE(new_status, ''),
		       COALESCE(comment, ''), COALESCE(photo_url, ''), created_by, created_at
		FROM ticket_updates WHERE ticket_id=$1 ORDER BY created_at;
	`
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to select ticket updates: %w", err)
	}
	defer rows.Close()

	var result []*models.TicketUpdate
	for rows.Next() {
		var u models.TicketUpdate
		if err := rows.Scan(
			&u.ID, &u.TicketID, &u.OldStatus, &u.NewStatus,
			&u.Comment, &u.PhotoURL, &u.CreatedBy, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
