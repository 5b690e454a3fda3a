// Package repomanager wires the per-entity repositories to one database
// handle and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/fixhost/fixhost/internal/server/repositories/rooms"
	"github.com/fixhost/fixhost/internal/server/repositories/tickets"
	"github.com/fixhost/fixhost/internal/server/repositories/updates"
	"github.com/fixhost/fixhost/internal/server/repositories/users"
)

type RepositoryManager interface {
	Conn() *sql.DB
	Tickets() tickets.Repository
	Rooms() rooms.Repository
	Users() users.Repository
	Updates() updates.Repository

	// InTicketTx runs fn against transactional views of the ticket and
	// update repositories; both commit or roll back together.
	InTicketTx(ctx context.Context, fn func(ctx context.Context, t tickets.Repository, u updates.Repository) error) error

	Close() error
}
