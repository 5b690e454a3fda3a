// Package picker implements the photo capture and upload pipeline for a
// single maintenance ticket: it merges selections from two independent
// input channels (camera, gallery) into a bounded pending set, normalizes
// each image, uploads the results to blob storage and reconciles the
// ticket's photo reference list.
package picker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/imagex"
	"github.com/fixhost/fixhost/internal/logging"
	"github.com/fixhost/fixhost/internal/storage"
)

// DefaultMaxPhotos bounds |persisted| + |pending| for one ticket.
const DefaultMaxPhotos = 5

// Origin tags which input control produced a file selection.
type Origin string

const (
	OriginCamera  Origin = "camera"
	OriginGallery Origin = "gallery"
)

// RawFile is one file as it arrives from an input channel. Name may be
// empty for camera captures; MediaType may be empty or wrong.
type RawFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// PendingImage is a selected-but-not-yet-uploaded image held in memory.
type PendingImage struct {
	Name      string
	MediaType string
	Data      []byte
	Preview   *PreviewHandle
}

// RecordStore is the slice of the ticket store the pipeline needs: read and
// whole-array replace of the photo reference list, keyed by ticket id.
type RecordStore interface {
	GetPhotoURLs(ctx context.Context, ticketID int64) ([]string, error)
	SetPhotoURLs(ctx context.Context, ticketID int64, urls []string) error
}

// inputChannel mirrors one file input control. Every origin owns its own
// channel; consuming a camera capture must not clear a gallery selection
// that arrived moments earlier.
type inputChannel struct {
	files []RawFile
}

func (c *inputChannel) set(files []RawFile) {
	c.files = files
}

func (c *inputChannel) take() []RawFile {
	files := c.files
	c.files = nil
	return files
}

// Session owns the pending and persisted photo lists for one ticket while
// the picker is open. All methods are safe for concurrent use; UploadAll
// and RemovePersisted are additionally guarded against re-entrancy.
type Session struct {
	mu        sync.Mutex
	ticketID  int64
	maxPhotos int
	persisted []string
	pending   []*PendingImage
	inputs    map[Origin]*inputChannel
	busy      bool

	blobs    storage.BlobStore
	records  RecordStore
	previews *PreviewStore
	opts     imagex.Options
	log      logging.Logger
}

// NewSession builds a session for ticketID seeded with the record's current
// reference list. maxPhotos <= 0 selects DefaultMaxPhotos.
func NewSession(ticketID int64, currentRefs []string, maxPhotos int,
	blobs storage.BlobStore, records RecordStore, previews *PreviewStore,
	opts imagex.Options, log logging.Logger) *Session {

	if maxPhotos <= 0 {
		maxPhotos = DefaultMaxPhotos
	}

	refs := make([]string, len(currentRefs))
	copy(refs, currentRefs)

	return &Session{
		ticketID:  ticketID,
		maxPhotos: maxPhotos,
		persisted: refs,
		inputs: map[Origin]*inputChannel{
			OriginCamera:  {},
			OriginGallery: {},
		},
		blobs:    blobs,
		records:  records,
		previews: previews,
		opts:     opts,
		log:      log.With("ticket_id", ticketID),
	}
}

// AddFiles accepts a selection batch from one origin. Files beyond the
// remaining capacity are silently dropped, never queued and never an
// error. It returns the number of files accepted.
func (s *Session) AddFiles(files []RawFile, origin Origin) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.inputs[origin]
	if !ok {
		ch = &inputChannel{}
		s.inputs[origin] = ch
	}
	ch.set(files)

	// Consume and reset only this origin's channel.
	incoming := ch.take()

	remaining := s.maxPhotos - len(s.persisted) - len(s.pending)
	if remaining <= 0 {
		return 0
	}
	if len(incoming) > remaining {
		incoming = incoming[:remaining]
	}

	for _, f := range incoming {
		img := s.newPendingImage(f)
		s.pending = append(s.pending, img)
	}

	s.log.Debug(context.Background(), "files staged",
		"origin", string(origin), "accepted", len(incoming),
		"pending", len(s.pending), "persisted", len(s.persisted))

	return len(incoming)
}

func (s *Session) newPendingImage(f RawFile) *PendingImage {
	mediaType := f.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		// camera blobs often arrive nameless
		name = fmt.Sprintf("%s.%s", uuid.NewString(), imagex.ExtForMediaType(mediaType))
	}

	return &PendingImage{
		Name:      name,
		MediaType: mediaType,
		Data:      f.Data,
		Preview:   s.previews.Acquire(f.Data, mediaType),
	}
}

// Pending returns the current pending images, in selection order.
func (s *Session) Pending() []*PendingImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*PendingImage, len(s.pending))
	copy(out, s.pending)
	return out
}

// Persisted returns the current persisted reference list.
func (s *Session) Persisted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.persisted))
	copy(out, s.persisted)
	return out
}

// Busy reports whether an upload or deletion is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// RemovePending drops one pending image by index, releasing its preview.
// Out-of-range indexes are a no-op.
func (s *Session) RemovePending(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.pending) {
		return
	}

	s.pending[index].Preview.Release()
	s.pending = append(s.pending[:index], s.pending[index+1:]...)
}

func (s *Session) acquireBusy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return common.ErrSessionBusy
	}
	s.busy = true
	return nil
}

func (s *Session) releaseBusy() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

type uploadOutcome struct {
	url string
	err error
}

// UploadAll normalizes and uploads every pending image concurrently,
// settles all outcomes, then merges the successful addresses into the
// ticket's reference list in one whole-array record update.
//
// Partial success is kept: one file's failure never rolls back a sibling.
// If no file succeeds the operation fails with common.ErrUploadFailed and
// nothing is written to the record. If the record update fails after a
// successful batch, every image stays pending so the user can retry; the
// already-stored blobs may be duplicated by the retry, which is acceptable
// at this bounded count.
func (s *Session) UploadAll(ctx context.Context) ([]string, error) {
	if err := s.acquireBusy(); err != nil {
		return nil, err
	}
	defer s.releaseBusy()

	s.mu.Lock()
	batch := make([]*PendingImage, len(s.pending))
	copy(batch, s.pending)
	s.mu.Unlock()

	if len(batch) == 0 {
		return s.Persisted(), nil
	}

	outcomes := make([]uploadOutcome, len(batch))

	var wg sync.WaitGroup
	for i, img := range batch {
		wg.Add(1)
		go func(i int, img *PendingImage) {
			defer wg.Done()
			outcomes[i] = s.uploadOne(ctx, img)
		}(i, img)
	}
	wg.Wait()

	var succeeded []string
	uploaded := make(map[*PendingImage]bool, len(batch))
	for i, out := range outcomes {
		if out.err != nil {
			s.log.Warn(ctx, "photo upload failed", "name", batch[i].Name, "error", out.err.Error())
			continue
		}
		succeeded = append(succeeded, out.url)
		uploaded[batch[i]] = true
	}

	if len(succeeded) == 0 {
		return nil, fmt.Errorf("%w: %d file(s)", common.ErrUploadFailed, len(batch))
	}

	current, err := s.records.GetPhotoURLs(ctx, s.ticketID)
	if err != nil {
		return nil, fmt.Errorf("read photo list: %w", err)
	}

	merged := append(append([]string{}, current...), succeeded...)
	if len(merged) > s.maxPhotos {
		merged = merged[:s.maxPhotos]
	}

	if err := s.records.SetPhotoURLs(ctx, s.ticketID, merged); err != nil {
		return nil, fmt.Errorf("update photo list: %w", err)
	}

	s.mu.Lock()
	kept := s.pending[:0]
	for _, img := range s.pending {
		if uploaded[img] {
			img.Preview.Release()
			continue
		}
		kept = append(kept, img)
	}
	s.pending = kept
	s.persisted = merged
	s.mu.Unlock()

	s.log.Info(ctx, "photos uploaded",
		"uploaded", len(succeeded), "failed", len(batch)-len(succeeded), "total", len(merged))

	return merged, nil
}

func (s *Session) uploadOne(ctx context.Context, img *PendingImage) uploadOutcome {
	res := imagex.Normalize(img.Data, img.MediaType, s.opts)

	key := storage.ObjectKey(s.ticketID, res.Ext())
	if err := s.blobs.Upload(ctx, key, res.Data, res.MediaType); err != nil {
		return uploadOutcome{err: err}
	}
	return uploadOutcome{url: s.blobs.PublicURL(key)}
}

// RemovePersisted deletes one already-uploaded photo: best-effort blob
// delete, then a whole-array record update. The reference disappears from
// the visible set only once the record update succeeds; on failure it stays
// and the error is surfaced.
func (s *Session) RemovePersisted(ctx context.Context, url string) error {
	if err := s.acquireBusy(); err != nil {
		return err
	}
	defer s.releaseBusy()

	if key, err := s.blobs.KeyFromURL(url); err != nil {
		s.log.Warn(ctx, "cannot derive storage key, skipping blob delete", "url", url, "error", err.Error())
	} else if err := s.blobs.Delete(ctx, key); err != nil {
		// an orphaned blob is harmless, a stuck UI is not
		s.log.Warn(ctx, "blob delete failed", "key", key, "error", err.Error())
	}

	current, err := s.records.GetPhotoURLs(ctx, s.ticketID)
	if err != nil {
		return fmt.Errorf("read photo list: %w", err)
	}

	updated := make([]string, 0, len(current))
	for _, u := range current {
		if u != url {
			updated = append(updated, u)
		}
	}

	if err := s.records.SetPhotoURLs(ctx, s.ticketID, updated); err != nil {
		return fmt.Errorf("update photo list: %w", err)
	}

	s.mu.Lock()
	s.persisted = updated
	s.mu.Unlock()

	return nil
}

// Close releases every pending preview. Call when the picker is discarded
// without uploading.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, img := range s.pending {
		img.Preview.Release()
	}
	s.pending = nil
}
