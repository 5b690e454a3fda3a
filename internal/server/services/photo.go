package services

import (
	"context"
	"sync"

	"github.com/fixhost/fixhost/internal/imagex"
	"github.com/fixhost/fixhost/internal/logging"
	"github.com/fixhost/fixhost/internal/picker"
	"github.com/fixhost/fixhost/internal/server/models"
	"github.com/fixhost/fixhost/internal/server/repositories/tickets"
	"github.com/fixhost/fixhost/internal/server/repositories/updates"
	"github.com/fixhost/fixhost/internal/storage"
)

// PhotoService owns one picker session per ticket. A session is created
// lazily on first use, seeded from the ticket's stored reference list, and
// lives until the ticket's picker is discarded.
type PhotoService struct {
	mu       sync.Mutex
	sessions map[int64]*picker.Session

	tickets   tickets.Repository
	updates   updates.Repository
	blobs     storage.BlobStore
	previews  *picker.PreviewStore
	opts      imagex.Options
	maxPhotos int
	log       logging.Logger
}

func NewPhotoService(ticketRepo tickets.Repository, updateRepo updates.Repository,
	blobs storage.BlobStore, previews *picker.PreviewStore,
	opts imagex.Options, maxPhotos int, log logging.Logger) *PhotoService {

	return &PhotoService{
		sessions:  make(map[int64]*picker.Session),
		tickets:   ticketRepo,
		updates:   updateRepo,
		blobs:     blobs,
		previews:  previews,
		opts:      opts,
		maxPhotos: maxPhotos,
		log:       log,
	}
}

func (s *PhotoService) session(ctx context.Context, ticketID int64) (*picker.Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[ticketID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	// Seed outside the lock: the record read can be slow.
	refs, err := s.tickets.GetPhotoURLs(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[ticketID]; ok {
		return sess, nil
	}
	sess := picker.NewSession(ticketID, refs, s.maxPhotos, s.blobs, s.tickets, s.previews, s.opts, s.log)
	s.sessions[ticketID] = sess
	return sess, nil
}

// Stage accepts a selection batch from one origin and returns the number
// of files actually queued.
func (s *PhotoService) Stage(ctx context.Context, ticketID int64, files []picker.RawFile, origin picker.Origin) (int, error) {
	sess, err := s.session(ctx, ticketID)
	if err != nil {
		return 0, err
	}
	return sess.AddFiles(files, origin), nil
}

// Pending returns the ticket's queued images and its persisted references.
func (s *PhotoService) Pending(ctx context.Context, ticketID int64) ([]*picker.PendingImage, []string, error) {
	sess, err := s.session(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	return sess.Pending(), sess.Persisted(), nil
}

// Upload pushes every queued image to storage and writes one audit row per
// photo that made it into the ticket's reference list.
func (s *PhotoService) Upload(ctx context.Context, ticketID int64, actor string) ([]string, error) {
	sess, err := s.session(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	before := sess.Persisted()
	merged, err := sess.UploadAll(ctx)
	if err != nil {
		return nil, err
	}

	// Uploaded keys carry a fresh uuid leaf, so membership against the
	// pre-upload snapshot identifies exactly the references this call added.
	known := make(map[string]bool, len(before))
	for _, url := range before {
		known[url] = true
	}

	for _, url := range merged {
		if known[url] {
			continue
		}
		err := s.updates.Create(ctx, &models.TicketUpdate{
			TicketID:  ticketID,
			Comment:   "Foto anexada",
			PhotoURL:  url,
			CreatedBy: actor,
		})
		if err != nil {
			// the photo is stored and referenced; a missing audit row
			// is not worth failing the request over
			s.log.Warn(ctx, "audit row for photo failed", "ticket_id", ticketID, "error", err.Error())
		}
	}

	return merged, nil
}

// RemovePending drops one queued image by index.
func (s *PhotoService) RemovePending(ctx context.Context, ticketID int64, index int) error {
	sess, err := s.session(ctx, ticketID)
	if err != nil {
		return err
	}
	sess.RemovePending(index)
	return nil
}

// Remove deletes one already-uploaded photo from storage and from the
// ticket's reference list.
func (s *PhotoService) Remove(ctx context.Context, ticketID int64, url, actor string) error {
	sess, err := s.session(ctx, ticketID)
	if err != nil {
		return err
	}

	if err := sess.RemovePersisted(ctx, url); err != nil {
		return err
	}

	err = s.updates.Create(ctx, &models.TicketUpdate{
		TicketID:  ticketID,
		Comment:   "Foto removida",
		PhotoURL:  url,
		CreatedBy: actor,
	})
	if err != nil {
		s.log.Warn(ctx, "audit row for photo removal failed", "ticket_id", ticketID, "error", err.Error())
	}

	return nil
}

// Preview returns the payload for a live preview id.
func (s *PhotoService) Preview(id string) (data []byte, mediaType string, ok bool) {
	return s.previews.Get(id)
}

// Discard closes a ticket's session, releasing every queued preview.
func (s *PhotoService) Discard(ticketID int64) {
	s.mu.Lock()
	sess, ok := s.sessions[ticketID]
	delete(s.sessions, ticketID)
	s.mu.Unlock()

	if ok {
		sess.Close()
	}
}
