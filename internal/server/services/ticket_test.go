package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/server/models"
	"github.com/fixhost/fixhost/internal/server/repositories/tickets"
	"github.com/fixhost/fixhost/internal/server/repositories/updates"
)

// -------- test fakes --------

// fakeTicketRepo embeds the interface so tests only implement what they use.
type fakeTicketRepo struct {
	tickets.Repository

	byID     map[int64]*models.Ticket
	created  []*models.Ticket
	nextID   int64
	statuses map[int64]string
	closedAt map[int64]*time.Time

	urls    map[int64][]string
	getErr  error
	setURLs map[int64][]string
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		byID:     make(map[int64]*models.Ticket),
		nextID:   1,
		statuses: make(map[int64]string),
		closedAt: make(map[int64]*time.Time),
		urls:     make(map[int64][]string),
		setURLs:  make(map[int64][]string),
	}
}

func (f *fakeTicketRepo) Create(ctx context.Context, t *models.Ticket) (int64, error) {
	id := f.nextID
	f.nextID++
	t.ID = id
	f.byID[id] = t
	f.created = append(f.created, t)
	return id, nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTicketRepo) UpdateStatus(ctx context.Context, id int64, status string, closedAt *time.Time) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	f.statuses[id] = status
	f.closedAt[id] = closedAt
	return nil
}

func (f *fakeTicketRepo) GetPhotoURLs(ctx context.Context, id int64) ([]string, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]string, len(f.urls[id]))
	copy(out, f.urls[id])
	return out, nil
}

func (f *fakeTicketRepo) SetPhotoURLs(ctx context.Context, id int64, urls []string) error {
	f.urls[id] = urls
	f.setURLs[id] = urls
	return nil
}

type fakeUpdateRepo struct {
	rows      []*models.TicketUpdate
	createErr error
}

func (f *fakeUpdateRepo) Create(ctx context.Context, u *models.TicketUpdate) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows = append(f.rows, u)
	return nil
}

func (f *fakeUpdateRepo) ListByTicket(ctx context.Context, ticketID int64) ([]*models.TicketUpdate, error) {
	var out []*models.TicketUpdate
	for _, r := range f.rows {
		if r.TicketID == ticketID {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeTxRunner hands the same fakes back to fn; there is nothing to roll
// back in memory.
type fakeTxRunner struct {
	tickets *fakeTicketRepo
	updates *fakeUpdateRepo
}

func (f *fakeTxRunner) InTicketTx(ctx context.Context, fn func(ctx context.Context, t tickets.Repository, u updates.Repository) error) error {
	return fn(ctx, f.tickets, f.updates)
}

func newTicketService(repo *fakeTicketRepo, upd *fakeUpdateRepo) *TicketService {
	return NewTicketService(repo, upd, &fakeTxRunner{tickets: repo, updates: upd})
}

// -------- tests --------

func TestTicketService_Create(t *testing.T) {
	repo := newFakeTicketRepo()
	updates := &fakeUpdateRepo{}
	svc := newTicketService(repo, updates)

	got, err := svc.Create(context.Background(), CreateTicketInput{
		RoomID:    "room-101",
		Category:  "eletrica",
		Priority:  models.PriorityHigh,
		Title:     "Tomada sem energia",
		CreatedBy: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, models.StatusOpen, got.Status)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), got.DueAt, time.Minute)

	// creation opens the history
	require.Len(t, updates.rows, 1)
	assert.Equal(t, int64(1), updates.rows[0].TicketID)
	assert.Equal(t, models.StatusOpen, updates.rows[0].NewStatus)
	assert.Equal(t, "Chamado aberto", updates.rows[0].Comment)
	assert.Equal(t, "user-1", updates.rows[0].CreatedBy)
}

func TestTicketService_Create_Invalid(t *testing.T) {
	svc := newTicketService(newFakeTicketRepo(), &fakeUpdateRepo{})

	_, err := svc.Create(context.Background(), CreateTicketInput{Priority: models.PriorityLow})
	assert.Error(t, err, "missing room must be rejected")

	_, err = svc.Create(context.Background(), CreateTicketInput{RoomID: "room-101", Priority: "urgent"})
	assert.Error(t, err, "unknown priority must be rejected")
}

func TestTicketService_ChangeStatus_Resolved(t *testing.T) {
	repo := newFakeTicketRepo()
	updates := &fakeUpdateRepo{}
	svc := newTicketService(repo, updates)

	repo.byID[7] = &models.Ticket{ID: 7, Status: models.StatusInProgress}

	err := svc.ChangeStatus(context.Background(), 7, models.StatusResolved, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusResolved, repo.statuses[7])
	require.NotNil(t, repo.closedAt[7], "resolving must stamp closed_at")

	require.Len(t, updates.rows, 1)
	assert.Equal(t, models.StatusInProgress, updates.rows[0].OldStatus)
	assert.Equal(t, models.StatusResolved, updates.rows[0].NewStatus)
	assert.Equal(t, "Resolvido", updates.rows[0].Comment)
}

func TestTicketService_ChangeStatus_SameStatusIsNoop(t *testing.T) {
	repo := newFakeTicketRepo()
	updates := &fakeUpdateRepo{}
	svc := newTicketService(repo, updates)

	repo.byID[7] = &models.Ticket{ID: 7, Status: models.StatusOpen}

	err := svc.ChangeStatus(context.Background(), 7, models.StatusOpen, "user-1")
	require.NoError(t, err)

	assert.Empty(t, repo.statuses, "no update expected")
	assert.Empty(t, updates.rows, "no audit row expected")
}

func TestTicketService_ChangeStatus_Unknown(t *testing.T) {
	svc := newTicketService(newFakeTicketRepo(), &fakeUpdateRepo{})
	err := svc.ChangeStatus(context.Background(), 7, "done", "user-1")
	assert.Error(t, err)
}

func TestTicketService_AddComment(t *testing.T) {
	repo := newFakeTicketRepo()
	updates := &fakeUpdateRepo{}
	svc := newTicketService(repo, updates)

	repo.byID[3] = &models.Ticket{ID: 3, Status: models.StatusOpen}

	require.NoError(t, svc.AddComment(context.Background(), 3, "Chave deixada na recepção", "user-2"))
	require.Len(t, updates.rows, 1)
	assert.Equal(t, "Chave deixada na recepção", updates.rows[0].Comment)

	assert.Error(t, svc.AddComment(context.Background(), 3, "", "user-2"), "empty comment must be rejected")
}

func TestTicketService_History_UnknownTicket(t *testing.T) {
	svc := newTicketService(newFakeTicketRepo(), &fakeUpdateRepo{})

	_, err := svc.History(context.Background(), 42)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
