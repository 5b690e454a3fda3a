package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/fixhost/fixhost/internal/dbx"
	"github.com/fixhost/fixhost/internal/server/migrations"
	"github.com/fixhost/fixhost/internal/server/repositories/rooms"
	"github.com/fixhost/fixhost/internal/server/repositories/tickets"
	"github.com/fixhost/fixhost/internal/server/repositories/updates"
	"github.com/fixhost/fixhost/internal/server/repositories/users"
)

type PostgresRepositoryManager struct {
	db      *sql.DB
	tickets tickets.Repository
	rooms   rooms.Repository
	users   users.Repository
	updates updates.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Tickets() tickets.Repository {
	return m.tickets
}

func (m *PostgresRepositoryManager) Rooms() rooms.Repository {
	return m.rooms
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *PostgresRepositoryManager) Updates() updates.Repository {
	return m.updates
}

func (m *PostgresRepositoryManager) InTicketTx(ctx context.Context, fn func(ctx context.Context, t tickets.Repository, u updates.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, tickets.NewPostgresRepository(tx), updates.NewPostgresRepository(tx))
	})
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:      db,
		tickets: tickets.NewPostgresRepository(db),
		rooms:   rooms.NewPostgresRepository(db),
		users:   users.NewPostgresRepository(db),
		updates: updates.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
