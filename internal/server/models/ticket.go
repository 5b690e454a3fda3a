// Package models defines server-side data models persisted in the database.
package models

import "time"

// Ticket statuses form a fixed three-step workflow.
const (
	StatusOpen       = "em_aberto"
	StatusInProgress = "em_processamento"
	StatusResolved   = "resolvido"
)

// Ticket priorities.
const (
	PriorityLow    = "baixa"
	PriorityMedium = "media"
	PriorityHigh   = "alta"
)

// Ticket is a maintenance request ("chamado") opened against a room.
type Ticket struct {
	ID          int64
	RoomID      string
	Category    string
	Priority    string
	Title       string
	Description string
	Status      string

	// PhotoURLs is the bounded list of photo references owned by the
	// ticket. It is always replaced as a whole array, never appended to
	// at the storage layer.
	PhotoURLs []string

	CreatedBy  string
	AssigneeID string
	CreatedAt  time.Time
	DueAt      time.Time
	ClosedAt   *time.Time
}

// ValidStatus reports whether s is one of the workflow statuses.
func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusResolved
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// DueAfter returns the resolution deadline for a priority: high 24h,
// medium 48h, low 72h.
func DueAfter(priority string) time.Duration {
	switch priority {
	case PriorityHigh:
		return 24 * time.Hour
	case PriorityMedium:
		return 48 * time.Hour
	default:
		return 72 * time.Hour
	}
}
