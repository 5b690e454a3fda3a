package picker

import (
	"sync"

	"github.com/google/uuid"
)

type previewItem struct {
	data      []byte
	mediaType string
}

// PreviewStore holds thumbnail payloads for not-yet-uploaded images so the
// UI can render them. Entries live only as long as their handle: releasing
// the handle frees the memory.
type PreviewStore struct {
	mu    sync.Mutex
	items map[string]previewItem
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{items: make(map[string]previewItem)}
}

// Acquire registers a preview payload and returns its handle. The caller
// owns the handle and must release it on every exit path.
func (s *PreviewStore) Acquire(data []byte, mediaType string) *PreviewHandle {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = previewItem{data: data, mediaType: mediaType}
	s.mu.Unlock()
	return &PreviewHandle{id: id, store: s}
}

// Get returns the payload for a preview id, if it is still alive.
func (s *PreviewStore) Get(id string) (data []byte, mediaType string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, "", false
	}
	return item.data, item.mediaType, true
}

// Len reports the number of live previews.
func (s *PreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *PreviewStore) release(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// PreviewHandle is an ownership-scoped, revocable reference to a preview
// payload. Release is idempotent.
type PreviewHandle struct {
	id    string
	store *PreviewStore
	once  sync.Once
}

// ID addresses the preview for rendering (e.g. GET /previews/{id}).
func (h *PreviewHandle) ID() string {
	return h.id
}

// Release frees the preview payload. Safe to call more than once.
func (h *PreviewHandle) Release() {
	h.once.Do(func() {
		h.store.release(h.id)
	})
}
