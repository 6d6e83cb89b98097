package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
	"github.com/iliyamo/invoicing-portal/internal/repository/memory"
	"github.com/iliyamo/invoicing-portal/internal/utils"
)

type fixture struct {
	store  *memory.Store
	gate   *Gate
	entity *model.Entity
	client *model.Account
	admin  *model.Account
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := memory.New()
	require.NoError(t, err)
	hash, err := utils.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	client := &model.Account{ID: uuid.NewString(), Username: "acme", PasswordHash: hash, Role: model.RoleClient, CreatedAt: now}
	entity := &model.Entity{ID: uuid.NewString(), AccountID: client.ID, BusinessName: "Acme", Active: true, CreatedAt: now}
	require.NoError(t, store.Entities().CreateWithAccount(ctx, entity, client))

	admin := &model.Account{ID: uuid.NewString(), Username: "root", PasswordHash: hash, Role: model.RoleAdmin, CreatedAt: now}
	require.NoError(t, store.Accounts().Create(ctx, admin))

	return &fixture{
		store:  store,
		gate:   NewGate(store, Config{Secret: "test-secret"}),
		entity: entity,
		client: client,
		admin:  admin,
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.gate.Login(ctx, LoginInput{Username: "acme", Password: "pw", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.NotNil(t, res.Entity)
	assert.Equal(t, f.entity.ID, res.Entity.ID)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionTTL), res.ExpiresAt, time.Minute)

	id, err := f.gate.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.client.ID, id.Account.ID)
	assert.Equal(t, "10.0.0.1", id.Session.IPAddress)
	assert.Equal(t, model.RoleClient, id.Role())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.gate.Login(ctx, LoginInput{Username: "acme", Password: "nope"})
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = f.gate.Login(ctx, LoginInput{Username: "ghost", Password: "pw"})
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestSecondLoginRefused(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.gate.Login(ctx, LoginInput{Username: "acme", Password: "pw"})
	require.NoError(t, err)
	_, err = f.gate.Login(ctx, LoginInput{Username: "acme", Password: "pw"})
	require.ErrorIs(t, err, apperr.ErrAlreadyLoggedIn)

	// the first session is untouched
	_, err = f.gate.Authenticate(ctx, first.Token)
	require.NoError(t, err)

	require.NoError(t, f.gate.Logout(ctx, first.Token))
	_, err = f.gate.Login(ctx, LoginInput{Username: "acme", Password: "pw"})
	require.NoError(t, err)
}

func TestConcurrentLoginsAdmitOne(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.gate.Login(ctx, LoginInput{Username: "root", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, apperr.ErrAlreadyLoggedIn) {
				refused++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, refused)
}

func TestInactiveEntityCannotLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.store.Entities().SetActive(ctx, f.entity.ID, false, time.Now()))

	_, err := f.gate.Login(ctx, LoginInput{Username: "acme", Password: "pw"})
	require.ErrorIs(t, err, apperr.ErrAccountInactive)
}

func TestDeactivationEndsSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.gate.Login(ctx, LoginInput{Username: "acme", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, f.store.Entities().SetActive(ctx, f.entity.ID, false, time.Now()))
	_, err = f.gate.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, apperr.ErrSessionExpired)

	// reactivation does not revive the old session
	require.NoError(t, f.store.Entities().SetActive(ctx, f.entity.ID, true, time.Now()))
	_, err = f.gate.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, apperr.ErrSessionExpired)
}

// deactivatingStore switches the entity off after the gate has read it as
// active and before the session is written.
type deactivatingStore struct {
	*memory.Store
	entityID string
}

func (s deactivatingStore) Sessions() repository.SessionStore {
	return deactivatingSessions{SessionStore: s.Store.Sessions(), store: s}
}

type deactivatingSessions struct {
	repository.SessionStore
	store deactivatingStore
}

func (s deactivatingSessions) CreateActive(ctx context.Context, sess *model.Session) error {
	if err := s.store.Entities().SetActive(ctx, s.store.entityID, false, time.Now()); err != nil {
		return err
	}
	return s.SessionStore.CreateActive(ctx, sess)
}

func TestLoginRacingDeactivationLeavesNoSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	gate := NewGate(deactivatingStore{Store: f.store, entityID: f.entity.ID}, Config{Secret: "test-secret"})

	_, err := gate.Login(ctx, LoginInput{Username: "acme", Password: "pw"})
	require.ErrorIs(t, err, apperr.ErrAccountInactive)
	e, err := f.store.Entities().GetByID(ctx, f.entity.ID)
	require.NoError(t, err)
	assert.False(t, e.Active)

	// Nothing was left live, so a reactivated tenant logs in afresh.
	require.NoError(t, f.store.Entities().SetActive(ctx, f.entity.ID, true, time.Now()))
	res, err := f.gate.Login(ctx, LoginInput{Username: "acme", Password: "pw"})
	require.NoError(t, err)
	_, err = f.gate.Authenticate(ctx, res.Token)
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.ErrorIs(t, f.gate.Logout(ctx, ""), apperr.ErrNoToken)
	require.ErrorIs(t, f.gate.Logout(ctx, "unknown"), apperr.ErrNoActiveSession)

	res, err := f.gate.Login(ctx, LoginInput{Username: "root", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, f.gate.Logout(ctx, res.Token))
	require.ErrorIs(t, f.gate.Logout(ctx, res.Token), apperr.ErrNoActiveSession)

	_, err = f.gate.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, apperr.ErrSessionExpired)
}

func TestAuthenticateRejectsForeignTokens(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.gate.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, apperr.ErrInvalidToken)

	other := NewGate(f.store, Config{Secret: "other-secret"})
	res, err := other.Login(ctx, LoginInput{Username: "root", Password: "pw"})
	require.NoError(t, err)
	_, err = f.gate.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestExpiredSessionIsRetiredOnLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-8 * 24 * time.Hour)
	f.gate.now = func() time.Time { return past }
	_, err := f.gate.Login(ctx, LoginInput{Username: "root", Password: "pw"})
	require.NoError(t, err)

	f.gate.now = func() time.Time { return time.Now().UTC() }
	_, err = f.gate.Login(ctx, LoginInput{Username: "root", Password: "pw"})
	require.NoError(t, err)
}
