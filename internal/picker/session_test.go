package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/imagex"
	"github.com/fixhost/fixhost/internal/logging"
)

// -------- test fakes --------

type fakeBlob struct {
	mu      sync.Mutex
	uploads map[string][]byte
	deleted []string

	failWhen func(data []byte) bool
	delErr   error

	// blockUploads, when non-nil, makes Upload wait until the channel is
	// closed. started is closed on the first Upload call.
	blockUploads chan struct{}
	startedOnce  sync.Once
	started      chan struct{}
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{uploads: make(map[string][]byte), started: make(chan struct{})}
}

func (f *fakeBlob) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	f.startedOnce.Do(func() { close(f.started) })
	if f.blockUploads != nil {
		<-f.blockUploads
	}
	if f.failWhen != nil && f.failWhen(data) {
		return errors.New("upload refused")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.uploads[key]; exists {
		return errors.New("key already exists")
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeBlob) PublicURL(key string) string {
	return "mem://fotos/" + key
}

func (f *fakeBlob) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, key)
	delete(f.uploads, key)
	return nil
}

func (f *fakeBlob) KeyFromURL(url string) (string, error) {
	key, ok := strings.CutPrefix(url, "mem://fotos/")
	if !ok || key == "" {
		return "", fmt.Errorf("foreign url %q", url)
	}
	return key, nil
}

type fakeRecords struct {
	mu       sync.Mutex
	urls     []string
	getErr   error
	setErr   error
	setCalls int
	lastSet  []string
}

func (f *fakeRecords) GetPhotoURLs(ctx context.Context, ticketID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]string, len(f.urls))
	copy(out, f.urls)
	return out, nil
}

func (f *fakeRecords) SetPhotoURLs(ctx context.Context, ticketID int64, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.urls = make([]string, len(urls))
	copy(f.urls, urls)
	f.lastSet = urls
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// raw builds an undecodable payload so Normalize passes the bytes through
// and fakes can match on content.
func raw(name, marker string) RawFile {
	return RawFile{Name: name, MediaType: "application/octet-stream", Data: []byte(marker)}
}

func newTestSession(t *testing.T, blob *fakeBlob, records *fakeRecords, initial []string) (*Session, *PreviewStore) {
	t.Helper()
	previews := NewPreviewStore()
	s := NewSession(1, initial, DefaultMaxPhotos, blob, records, previews, imagex.Options{}, testLogger())
	return s, previews
}

// -------- capture coordinator --------

func TestAddFiles_TruncatesToRemainingCapacity(t *testing.T) {
	persisted := []string{"mem://fotos/a", "mem://fotos/b", "mem://fotos/c"}
	s, _ := newTestSession(t, newFakeBlob(), &fakeRecords{urls: persisted}, persisted)

	accepted := s.AddFiles([]RawFile{
		raw("f1.jpg", "f1"), raw("f2.jpg", "f2"), raw("f3.jpg", "f3"), raw("f4.jpg", "f4"),
	}, OriginGallery)

	assert.Equal(t, 2, accepted)

	pending := s.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "f1.jpg", pending[0].Name)
	assert.Equal(t, "f2.jpg", pending[1].Name)
}

func TestAddFiles_FullSetAcceptsNothing(t *testing.T) {
	s, _ := newTestSession(t, newFakeBlob(), &fakeRecords{}, nil)

	accepted := s.AddFiles([]RawFile{
		raw("1", "1"), raw("2", "2"), raw("3", "3"), raw("4", "4"), raw("5", "5"),
	}, OriginGallery)
	require.Equal(t, 5, accepted)

	assert.Equal(t, 0, s.AddFiles([]RawFile{raw("6", "6")}, OriginCamera))
	assert.Len(t, s.Pending(), 5)
}

func TestAddFiles_OriginIsolation(t *testing.T) {
	s, _ := newTestSession(t, newFakeBlob(), &fakeRecords{}, nil)

	s.AddFiles([]RawFile{raw("g1.jpg", "g1"), raw("g2.jpg", "g2")}, OriginGallery)
	s.AddFiles([]RawFile{raw("c1.jpg", "c1")}, OriginCamera)

	pending := s.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, "g1.jpg", pending[0].Name)
	assert.Equal(t, "g2.jpg", pending[1].Name)
	assert.Equal(t, "c1.jpg", pending[2].Name)
}

func TestAddFiles_SynthesizesNameForNamelessCapture(t *testing.T) {
	s, _ := newTestSession(t, newFakeBlob(), &fakeRecords{}, nil)

	s.AddFiles([]RawFile{{Name: "  ", MediaType: "", Data: []byte("camera blob")}}, OriginCamera)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.True(t, strings.HasSuffix(pending[0].Name, ".jpg"), "expected synthesized jpg name, got %q", pending[0].Name)
	assert.Equal(t, "image/jpeg", pending[0].MediaType)
}

func TestCapacityInvariant_UnderInterleaving(t *testing.T) {
	persisted := []string{"mem://fotos/a"}
	s, _ := newTestSession(t, newFakeBlob(), &fakeRecords{urls: persisted}, persisted)

	check := func() {
		total := len(s.Pending()) + len(s.Persisted())
		require.LessOrEqual(t, total, DefaultMaxPhotos)
	}

	s.AddFiles([]RawFile{raw("1", "1"), raw("2", "2"), raw("3", "3")}, OriginGallery)
	check()
	s.RemovePending(1)
	check()
	s.AddFiles([]RawFile{raw("4", "4"), raw("5", "5"), raw("6", "6")}, OriginCamera)
	check()
	s.RemovePending(0)
	check()
	s.AddFiles([]RawFile{raw("7", "7")}, OriginGallery)
	check()
}

func TestRemovePending_BoundsChecked(t *testing.T) {
	s, previews := newTestSession(t, newFakeBlob(), &fakeRecords{}, nil)
	s.AddFiles([]RawFile{raw("a.jpg", "a")}, OriginGallery)

	s.RemovePending(-1)
	s.RemovePending(5)
	assert.Len(t, s.Pending(), 1)

	s.RemovePending(0)
	assert.Empty(t, s.Pending())
	assert.Equal(t, 0, previews.Len(), "preview must be released on removal")
}

func TestClose_ReleasesAllPreviews(t *testing.T) {
	s, previews := newTestSession(t, newFakeBlob(), &fakeRecords{}, nil)
	s.AddFiles([]RawFile{raw("a", "a"), raw("b", "b")}, OriginGallery)
	require.Equal(t, 2, previews.Len())

	s.Close()
	assert.Equal(t, 0, previews.Len())
	assert.Empty(t, s.Pending())
}

// -------- upload pipeline --------

func TestUploadAll_AllSucceed(t *testing.T) {
	blob := newFakeBlob()
	records := &fakeRecords{}
	s, previews := newTestSession(t, blob, records, nil)

	s.AddFiles([]RawFile{raw("a.jpg", "a"), raw("b.jpg", "b")}, OriginGallery)

	merged, err := s.UploadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, merged, 2)
	assert.Equal(t, merged, records.urls)
	assert.Equal(t, 1, records.setCalls, "reconciliation must write exactly once")
	assert.Empty(t, s.Pending())
	assert.Equal(t, 0, previews.Len(), "previews released after settlement")
}

func TestUploadAll_PartialSuccessKeepsFailures(t *testing.T) {
	blob := newFakeBlob()
	blob.failWhen = func(data []byte) bool { return bytes.Equal(data, []byte("bad")) }
	records := &fakeRecords{urls: []string{"mem://fotos/old"}}
	s, _ := newTestSession(t, blob, records, records.urls)

	s.AddFiles([]RawFile{raw("ok1.jpg", "ok1"), raw("bad.jpg", "bad"), raw("ok2.jpg", "ok2")}, OriginGallery)

	merged, err := s.UploadAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, merged, 3, "1 old + 2 new")
	assert.Equal(t, "mem://fotos/old", merged[0])
	assert.Equal(t, 1, records.setCalls)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "bad.jpg", pending[0].Name)
}

func TestUploadAll_AllFail(t *testing.T) {
	blob := newFakeBlob()
	blob.failWhen = func([]byte) bool { return true }
	records := &fakeRecords{}
	s, _ := newTestSession(t, blob, records, nil)

	s.AddFiles([]RawFile{raw("a", "a"), raw("b", "b")}, OriginGallery)

	_, err := s.UploadAll(context.Background())
	require.ErrorIs(t, err, common.ErrUploadFailed)

	assert.Equal(t, 0, records.setCalls, "no record write on all-failed batch")
	assert.Len(t, s.Pending(), 2, "everything stays pending")
}

func TestUploadAll_EmptyPendingIsNoop(t *testing.T) {
	records := &fakeRecords{urls: []string{"mem://fotos/a"}}
	s, _ := newTestSession(t, newFakeBlob(), records, records.urls)

	merged, err := s.UploadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mem://fotos/a"}, merged)
	assert.Equal(t, 0, records.setCalls)
}

func TestUploadAll_RecordUpdateFailureKeepsPending(t *testing.T) {
	blob := newFakeBlob()
	records := &fakeRecords{setErr: errors.New("db down")}
	s, previews := newTestSession(t, blob, records, nil)

	s.AddFiles([]RawFile{raw("a.jpg", "a")}, OriginGallery)

	_, err := s.UploadAll(context.Background())
	require.Error(t, err)

	// blob is durable already, but the pending image stays for manual retry
	assert.Len(t, blob.uploads, 1)
	assert.Len(t, s.Pending(), 1)
	assert.Equal(t, 1, previews.Len(), "preview retained while still pending")
}

func TestUploadAll_MergeTruncatedToMax(t *testing.T) {
	blob := newFakeBlob()
	records := &fakeRecords{urls: []string{"u1", "u2", "u3", "u4"}}
	// seed the session with a stale, shorter view so more files can be staged
	s, _ := newTestSession(t, blob, records, []string{"u1", "u2", "u3"})

	s.AddFiles([]RawFile{raw("a", "a"), raw("b", "b")}, OriginGallery)

	merged, err := s.UploadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, merged, DefaultMaxPhotos)
}

func TestUploadAll_RejectsReentrancy(t *testing.T) {
	blob := newFakeBlob()
	blob.blockUploads = make(chan struct{})
	records := &fakeRecords{}
	s, _ := newTestSession(t, blob, records, nil)

	s.AddFiles([]RawFile{raw("a", "a")}, OriginGallery)

	done := make(chan error, 1)
	go func() {
		_, err := s.UploadAll(context.Background())
		done <- err
	}()

	<-blob.started
	assert.True(t, s.Busy())

	_, err := s.UploadAll(context.Background())
	assert.ErrorIs(t, err, common.ErrSessionBusy)

	close(blob.blockUploads)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
}

// -------- deletion --------

func TestRemovePersisted_DeletesBlobAndUpdatesRecord(t *testing.T) {
	blob := newFakeBlob()
	records := &fakeRecords{urls: []string{"mem://fotos/tickets/1/x.jpg", "mem://fotos/tickets/1/y.jpg"}}
	s, _ := newTestSession(t, blob, records, records.urls)

	err := s.RemovePersisted(context.Background(), "mem://fotos/tickets/1/x.jpg")
	require.NoError(t, err)

	assert.Equal(t, []string{"tickets/1/x.jpg"}, blob.deleted)
	assert.Equal(t, []string{"mem://fotos/tickets/1/y.jpg"}, records.urls)
	assert.Equal(t, []string{"mem://fotos/tickets/1/y.jpg"}, s.Persisted())
}

func TestRemovePersisted_StorageDeleteFailureIsSwallowed(t *testing.T) {
	blob := newFakeBlob()
	blob.delErr = errors.New("storage down")
	records := &fakeRecords{urls: []string{"mem://fotos/k"}}
	s, _ := newTestSession(t, blob, records, records.urls)

	err := s.RemovePersisted(context.Background(), "mem://fotos/k")
	require.NoError(t, err)
	assert.Empty(t, records.urls)
}

func TestRemovePersisted_RecordFailureKeepsReferenceVisible(t *testing.T) {
	blob := newFakeBlob()
	records := &fakeRecords{urls: []string{"mem://fotos/k"}, setErr: errors.New("db down")}
	s, _ := newTestSession(t, blob, records, records.urls)

	err := s.RemovePersisted(context.Background(), "mem://fotos/k")
	require.Error(t, err)

	assert.Equal(t, []string{"mem://fotos/k"}, s.Persisted(), "no optimistic removal survives a failed confirmation")
}

func TestRemovePersisted_ForeignURLStillUpdatesRecord(t *testing.T) {
	blob := newFakeBlob()
	records := &fakeRecords{urls: []string{"https://elsewhere/x.jpg"}}
	s, _ := newTestSession(t, blob, records, records.urls)

	err := s.RemovePersisted(context.Background(), "https://elsewhere/x.jpg")
	require.NoError(t, err)
	assert.Empty(t, blob.deleted)
	assert.Empty(t, s.Persisted())
}
