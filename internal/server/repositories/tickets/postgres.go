// Package tickets provides the PostgreSQL-backed repository for maintenance
// tickets, including the whole-array photo reference column used by the
// upload pipeline's reconciliation step.
package tickets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/dbx"
	"github.com/fixhost/fixhost/internal/server/models"
)

// PostgresRepository implements ticket storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Ticket) (int64, error) {
	query := `
		INSERT INTO tickets (room_id, category, priority, title, description, status, photo_urls, created_by, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;
	`
	photos, err := marshalPhotoURLs(t.PhotoURLs)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		t.RoomID, t.Category, t.Priority, t.Title, t.Description, t.Status, photos, t.CreatedBy, t.DueAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	query := `
		SELECT id, room_id, category, priority, title, description, status, photo_urls,
		       created_by, COALESCE(assignee_id, ''), created_at, due_at, closed_at
		FROM tickets WHERE id=$1;
	`
	var t models.Ticket
	var photos []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.RoomID, &t.Category, &t.Priority, &t.Title, &t.Description, &t.Status, &photos,
		&t.CreatedBy, &t.AssigneeID, &t.CreatedAt, &t.DueAt, &t.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if t.PhotoURLs, err = unmarshalPhotoURLs(photos); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*models.Ticket, error) {
	query := `
		SELECT id, room_id, category, priority, title, description, status, photo_urls,
		       created_by, COALESCE(assignee_id, ''), created_at, due_at, closed_at
		FROM tickets
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR priority = $2)
		  AND ($3 = '' OR title ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%' OR category ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC;
	`
	rows, err := r.db.QueryContext(ctx, query, f.Status, f.Priority, f.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to select tickets: %w", err)
	}
	defer rows.Close()

	var result []*models.Ticket
	for rows.Next() {
		var t models.Ticket
		var photos []byte
		if err := rows.Scan(
			&t.ID, &t.RoomID, &t.Category, &t.Priority, &t.Title, &t.Description, &t.Status, &photos,
			&t.CreatedBy, &t.AssigneeID, &t.CreatedAt, &t.DueAt, &t.ClosedAt,
		); err != nil {
			return nil, err
		}
		if t.PhotoURLs, err = unmarshalPhotoURLs(photos); err != nil {
			return nil, err
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status string, closedAt *time.Time) error {
	query := `UPDATE tickets SET status=$2, closed_at=$3 WHERE id=$1;`
	res, err := r.db.ExecContext(ctx, query, id, status, closedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func (r *PostgresRepository) GetPhotoURLs(ctx context.Context, id int64) ([]string, error) {
	query := `SELECT photo_urls FROM tickets WHERE id=$1;`
	var photos []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&photos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return unmarshalPhotoURLs(photos)
}

func (r *PostgresRepository) SetPhotoURLs(ctx context.Context, id int64, urls []string) error {
	query := `UPDATE tickets SET photo_urls=$2 WHERE id=$1;`
	photos, err := marshalPhotoURLs(urls)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, id, photos)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// photo_urls is a jsonb column holding the whole reference array.

func marshalPhotoURLs(urls []string) ([]byte, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("marshal photo urls: %w", err)
	}
	return b, nil
}

func unmarshalPhotoURLs(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("unmarshal photo urls: %w", err)
	}
	return urls, nil
}
