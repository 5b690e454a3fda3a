package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fixhost/fixhost/internal/server/models"
	"github.com/fixhost/fixhost/internal/server/repositories/tickets"
	"github.com/fixhost/fixhost/internal/server/services"
)

type ticketResponse struct {
	ID          int64      `json:"id"`
	RoomID      string     `json:"room_id"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	PhotoURLs   []string   `json:"photo_urls"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	DueAt       time.Time  `json:"due_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

func toTicketResponse(t *models.Ticket) ticketResponse {
	urls := t.PhotoURLs
	if urls == nil {
		urls = []string{}
	}
	return ticketResponse{
		ID:          t.ID,
		RoomID:      t.RoomID,
		Category:    t.Category,
		Priority:    t.Priority,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		PhotoURLs:   urls,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		DueAt:       t.DueAt,
		ClosedAt:    t.ClosedAt,
	}
}

func ticketID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID      string `json:"room_id"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid json body")
		return
	}

	t, err := s.tickets.Create(r.Context(), services.CreateTicketInput{
		RoomID:      req.RoomID,
		Category:    req.Category,
		Priority:    req.Priority,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   userIDFromContext(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toTicketResponse(t))
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	t, err := s.tickets.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toTicketResponse(t))
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.tickets.List(r.Context(), tickets.Filter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Query:    q.Get("q"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]ticketResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTicketResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid json body")
		return
	}

	if err := s.tickets.ChangeStatus(r.Context(), id, req.Status, userIDFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid json body")
		return
	}

	if err := s.tickets.AddComment(r.Context(), id, req.Comment, userIDFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, nil)
}

type updateResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	Comment   string    `json:"comment"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	list, err := s.tickets.History(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]updateResponse, 0, len(list))
	for _, u := range list {
		out = append(out, updateResponse{
			ID:        u.ID,
			TicketID:  u.TicketID,
			OldStatus: u.OldStatus,
			NewStatus: u.NewStatus,
			Comment:   u.Comment,
			PhotoURL:  u.PhotoURL,
			CreatedBy: u.CreatedBy,
			CreatedAt: u.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}
