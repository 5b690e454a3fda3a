package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fixhost/fixhost/internal/picker"
)

// maxUploadBytes bounds one multipart staging request. Five photos at a
// phone-camera size fit comfortably.
const maxUploadBytes = 64 << 20

type pendingResponse struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	PreviewID string `json:"preview_id"`
}

type photoStateResponse struct {
	Pending   []pendingResponse `json:"pending"`
	Persisted []string          `json:"persisted"`
}

func toPhotoState(pending []*picker.PendingImage, persisted []string) photoStateResponse {
	out := photoStateResponse{Pending: []pendingResponse{}, Persisted: persisted}
	if out.Persisted == nil {
		out.Persisted = []string{}
	}
	for i, img := range pending {
		out.Pending = append(out.Pending, pendingResponse{
			Index:     i,
			Name:      img.Name,
			MediaType: img.MediaType,
			PreviewID: img.Preview.ID(),
		})
	}
	return out
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	pending, persisted, err := s.photos.Pending(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toPhotoState(pending, persisted))
}

// handleStagePhotos accepts a multipart selection batch. The "origin" form
// field names the input control ("camera" or "gallery"); the files arrive
// under the "photos" field.
func (s *Server) handleStagePhotos(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.badRequest(w, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	origin := picker.Origin(r.FormValue("origin"))
	if origin != picker.OriginCamera && origin != picker.OriginGallery {
		s.badRequest(w, "origin must be camera or gallery")
		return
	}

	var files []picker.RawFile
	for _, fh := range r.MultipartForm.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			s.badRequest(w, "unreadable file part")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.badRequest(w, "unreadable file part")
			return
		}
		files = append(files, picker.RawFile{
			Name:      fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Data:      data,
		})
	}

	accepted, err := s.photos.Stage(r.Context(), id, files, origin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pending, persisted, err := s.photos.Pending(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		Accepted int `json:"accepted"`
		photoStateResponse
	}{Accepted: accepted, photoStateResponse: toPhotoState(pending, persisted)})
}

func (s *Server) handleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	urls, err := s.photos.Upload(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]string{"photo_urls": urls})
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.badRequest(w, "url is required")
		return
	}

	if err := s.photos.Remove(r.Context(), id, req.URL, userIDFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleRemovePending(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.badRequest(w, "invalid index")
		return
	}

	if err := s.photos.RemovePending(r.Context(), id, index); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, nil)
}

// handleDiscardSession drops a ticket's picker session without uploading,
// freeing every staged image and preview. Clients call it when the picker
// is dismissed.
func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		s.badRequest(w, "invalid ticket id")
		return
	}

	s.photos.Discard(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	data, mediaType, ok := s.photos.Preview(mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}
