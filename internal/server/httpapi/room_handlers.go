package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fixhost/fixhost/internal/server/models"
)

type roomResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Floor int    `json:"floor"`
}

func toRoomResponse(room *models.Room) roomResponse {
	return roomResponse{ID: room.ID, Code: room.Code, Floor: room.Floor}
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string `json:"code"`
		Floor int    `json:"floor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid json body")
		return
	}

	room, err := s.rooms.Create(r.Context(), req.Code, req.Floor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toRoomResponse(room))
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	list, err := s.rooms.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]roomResponse, 0, len(list))
	for _, room := range list {
		out = append(out, toRoomResponse(room))
	}
	s.writeJSON(w, http.StatusOK, out)
}
