// Package rooms provides the PostgreSQL-backed repository for hotel rooms.
package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/dbx"
	"github.com/fixhost/fixhost/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, room *models.Room) error {
	query := `INSERT INTO rooms (id, code, floor) VALUES ($1, $2, $3);`
	_, err := r.db.ExecContext(ctx, query, room.ID, room.Code, room.Floor)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := `SELECT id, code, floor FROM rooms WHERE id=$1;`
	var room models.Room
	err := r.db.QueryRowContext(ctx, query, id).Scan(&room.ID, &room.Code, &room.Floor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &room, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT id, code, floor FROM rooms ORDER BY code;`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select rooms: %w", err)
	}
	defer rows.Close()

	var result []*models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Code, &room.Floor); err != nil {
			return nil, err
		}
		result = append(result, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
