package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func seedEntity(t *testing.T, s *Store, username string) (*model.Entity, *model.Account) {
	t.Helper()
	now := time.Now().UTC()
	a := &model.Account{ID: uuid.NewString(), Username: username, Role: model.RoleClient, CreatedAt: now, UpdatedAt: now}
	e := &model.Entity{ID: uuid.NewString(), AccountID: a.ID, BusinessName: username, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Entities().CreateWithAccount(context.Background(), e, a))
	return e, a
}

func newSession(accountID string, at time.Time, ttl time.Duration) *model.Session {
	return &model.Session{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		TokenHash:  uuid.NewString(),
		LoggedInAt: at,
		ExpiresAt:  at.Add(ttl),
	}
}

func TestCreateWithAccountRejectsDuplicateUsername(t *testing.T) {
	s := newStore(t)
	seedEntity(t, s, "acme")

	now := time.Now()
	a := &model.Account{ID: uuid.NewString(), Username: "acme", CreatedAt: now}
	e := &model.Entity{ID: uuid.NewString(), AccountID: a.ID, CreatedAt: now}
	err := s.Entities().CreateWithAccount(context.Background(), e, a)
	require.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = s.Entities().GetByID(context.Background(), e.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSingleActiveSession(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, a := seedEntity(t, s, "acme")
	now := time.Now().UTC()

	first := newSession(a.ID, now, time.Hour)
	require.NoError(t, s.Sessions().CreateActive(ctx, first))

	second := newSession(a.ID, now.Add(time.Minute), time.Hour)
	require.ErrorIs(t, s.Sessions().CreateActive(ctx, second), repository.ErrActiveSessionExists)
	_, err := s.Sessions().GetActiveByToken(ctx, second.TokenHash)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Sessions().TerminateByToken(ctx, first.TokenHash, now.Add(2*time.Minute)))
	require.ErrorIs(t, s.Sessions().TerminateByToken(ctx, first.TokenHash, now), repository.ErrNotFound)
	require.NoError(t, s.Sessions().CreateActive(ctx, second))
}

func TestCreateActiveRetiresExpiredSession(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, a := seedEntity(t, s, "acme")
	now := time.Now().UTC()

	old := newSession(a.ID, now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, s.Sessions().CreateActive(ctx, old))

	fresh := newSession(a.ID, now, time.Hour)
	require.NoError(t, s.Sessions().CreateActive(ctx, fresh))
	_, err := s.Sessions().GetActiveByToken(ctx, old.TokenHash)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentCreateActiveAdmitsOne(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, a := seedEntity(t, s, "acme")
	now := time.Now().UTC()

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, lost int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Sessions().CreateActive(ctx, newSession(a.ID, now, time.Hour))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repository.ErrActiveSessionExists):
				lost++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, lost)
}

func TestDeactivateCascadesToSessions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	e, a := seedEntity(t, s, "acme")
	now := time.Now().UTC()
	sess := newSession(a.ID, now, time.Hour)
	require.NoError(t, s.Sessions().CreateActive(ctx, sess))

	require.NoError(t, s.Entities().SetActive(ctx, e.ID, false, now))

	_, err := s.Sessions().GetActiveByToken(ctx, sess.TokenHash)
	require.ErrorIs(t, err, repository.ErrNotFound)
	got, err := s.Entities().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.ErrorIs(t, s.Entities().SetActive(ctx, "missing", false, now), repository.ErrNotFound)
}

func TestCreateActiveRefusesInactiveEntity(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	e, a := seedEntity(t, s, "acme")
	now := time.Now().UTC()
	require.NoError(t, s.Entities().SetActive(ctx, e.ID, false, now))

	sess := newSession(a.ID, now, time.Hour)
	require.ErrorIs(t, s.Sessions().CreateActive(ctx, sess), repository.ErrEntityInactive)
	_, err := s.Sessions().GetActiveByToken(ctx, sess.TokenHash)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoginAndDeactivationNeverLeaveLiveSession(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		s := newStore(t)
		e, a := seedEntity(t, s, "acme")
		now := time.Now().UTC()
		sess := newSession(a.ID, now, time.Hour)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Sessions().CreateActive(ctx, sess)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Entities().SetActive(ctx, e.ID, false, now))
		}()
		wg.Wait()

		_, err := s.Sessions().GetActiveByToken(ctx, sess.TokenHash)
		require.ErrorIs(t, err, repository.ErrNotFound)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	e, _ := seedEntity(t, s, "acme")
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		b := &model.Buyer{ID: uuid.NewString(), EntityID: e.ID, BuyerName: "X", Active: true}
		require.NoError(t, tx.Buyers().Create(ctx, b))
		found, err := tx.Buyers().FindActiveByName(ctx, e.ID, "X")
		require.NoError(t, err)
		assert.Equal(t, b.ID, found.ID)
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := s.Buyers().ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInvoiceSentFreeze(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	e, _ := seedEntity(t, s, "acme")
	now := time.Now().UTC()
	inv := &model.Invoice{ID: uuid.NewString(), EntityID: e.ID, BuyerID: "b", CreatedAt: now}
	require.NoError(t, s.Invoices().Create(ctx, inv))

	require.ErrorIs(t, s.Invoices().DeleteUnsent(ctx, "other", inv.ID), repository.ErrNotFound)
	require.NoError(t, s.Invoices().MarkSent(ctx, e.ID, inv.ID, now))
	require.NoError(t, s.Invoices().MarkSent(ctx, e.ID, inv.ID, now.Add(time.Hour)))

	got, err := s.Invoices().GetForEntity(ctx, e.ID, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SentAt)
	assert.True(t, got.SentAt.Equal(now))

	require.ErrorIs(t, s.Invoices().Replace(ctx, inv), repository.ErrNotFound)
	require.ErrorIs(t, s.Invoices().DeleteUnsent(ctx, e.ID, inv.ID), repository.ErrNotFound)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, a := seedEntity(t, s, "acme")
	require.NoError(t, s.Accounts().UpdateSettings(ctx, a.ID, map[string]any{"configs": map[string]any{"theme": "dark"}}, time.Now()))

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	got.Settings["configs"].(map[string]any)["theme"] = "light"

	again, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", again.Settings["configs"].(map[string]any)["theme"])
}

func TestFindActiveByNameUsesOldestActiveMatch(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	e, _ := seedEntity(t, s, "acme")
	other, _ := seedEntity(t, s, "other")
	base := time.Now().UTC()

	add := func(entityID, name string, active bool, age time.Duration) *model.Buyer {
		b := &model.Buyer{ID: uuid.NewString(), EntityID: entityID, BuyerName: name, Active: active, CreatedAt: base.Add(-age)}
		require.NoError(t, s.Buyers().Create(ctx, b))
		return b
	}
	add(e.ID, "Beta", false, 3*time.Hour)
	oldest := add(e.ID, "Beta", true, 2*time.Hour)
	add(e.ID, "Beta", true, time.Hour)
	add(e.ID, "Gamma", true, 4*time.Hour)
	add(other.ID, "Beta", true, 5*time.Hour)

	got, err := s.Buyers().FindActiveByName(ctx, e.ID, "Beta")
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, got.ID)

	_, err = s.Buyers().FindActiveByName(ctx, other.ID, "Gamma")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
