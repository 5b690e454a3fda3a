package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fixhost/fixhost/internal/common"
)

type errorEnvelope struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(context.Background(), "error encoding response", "error", err.Error())
	}
}

// writeError maps the sentinel errors onto HTTP statuses and emits the
// JSON error envelope. Anything unrecognized is a 500 with a generic
// message; the real error goes to the log only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, common.ErrorInvalidRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrSessionBusy):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrUploadFailed):
		status, msg = http.StatusBadGateway, err.Error()
	default:
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
	}

	s.writeJSON(w, status, errorEnvelope{Error: msg})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: msg})
}
