// Package httpapi exposes the ticketing workflow and the photo pipeline
// over a JSON HTTP API.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fixhost/fixhost/internal/logging"
	"github.com/fixhost/fixhost/internal/server/config"
	"github.com/fixhost/fixhost/internal/server/services"
)

// Server wires the application services into HTTP handlers.
type Server struct {
	cfg     *config.Config
	log     logging.Logger
	tickets *services.TicketService
	photos  *services.PhotoService
	users   *services.UserService
	rooms   *services.RoomService
}

func NewServer(cfg *config.Config, log logging.Logger,
	tickets *services.TicketService, photos *services.PhotoService,
	users *services.UserService, rooms *services.RoomService) *Server {

	return &Server{
		cfg:     cfg,
		log:     log,
		tickets: tickets,
		photos:  photos,
		users:   users,
		rooms:   rooms,
	}
}

// Router builds the route table. Everything under /api except /api/login
// requires a bearer token; user management is admin-gated.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/tickets", s.handleListTickets).Methods(http.MethodGet)
	api.HandleFunc("/tickets", s.handleCreateTicket).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{id:[0-9]+}", s.handleGetTicket).Methods(http.MethodGet)
	api.HandleFunc("/tickets/{id:[0-9]+}/status", s.handleChangeStatus).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{id:[0-9]+}/updates", s.handleListUpdates).Methods(http.MethodGet)
	api.HandleFunc("/tickets/{id:[0-9]+}/updates", s.handleAddComment).Methods(http.MethodPost)

	api.HandleFunc("/tickets/{id:[0-9]+}/photos", s.handleListPhotos).Methods(http.MethodGet)
	api.HandleFunc("/tickets/{id:[0-9]+}/photos", s.handleStagePhotos).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{id:[0-9]+}/photos", s.handleRemovePhoto).Methods(http.MethodDelete)
	api.HandleFunc("/tickets/{id:[0-9]+}/photos/upload", s.handleUploadPhotos).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{id:[0-9]+}/photos/pending/{index:[0-9]+}", s.handleRemovePending).Methods(http.MethodDelete)
	api.HandleFunc("/tickets/{id:[0-9]+}/photos/session", s.handleDiscardSession).Methods(http.MethodDelete)

	api.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	api.HandleFunc("/rooms", s.handleCreateRoom).Methods(http.MethodPost)

	api.HandleFunc("/users", s.requireAdmin(s.handleListUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users", s.requireAdmin(s.handleCreateUser)).Methods(http.MethodPost)

	// Preview payloads are addressed by unguessable uuid handles and are
	// consumed by <img> tags, which cannot attach a bearer token.
	r.HandleFunc("/previews/{id}", s.handleGetPreview).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
