package models

import "time"

// TicketUpdate is one audit row in a ticket's history: a status
// transition, a comment, an attached photo, or any combination.
type TicketUpdate struct {
	ID        int64
	TicketID  int64
	OldStatus string
	NewStatus string
	Comment   string
	PhotoURL  string
	CreatedBy string
	CreatedAt time.Time
}
