package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/auth"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/queue"
)

func entityInput(username string) CreateEntityInput {
	return CreateEntityInput{
		Username:         username,
		Password:         "secret",
		BusinessName:     "Acme Traders",
		RegistrationType: model.RegistrationRegistered,
		Province:         model.ProvinceSindh,
		NTN:              "1234567",
		FullAddress:      "Clifton, Karachi",
	}
}

func TestEntityCreateMakesClientAccount(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	events := &recorder{}
	svc := NewEntityService(s, events, bcrypt.MinCost)

	e, acct, err := svc.Create(ctx, entityInput("acme"))
	require.NoError(t, err)
	assert.True(t, e.Active)
	assert.Equal(t, model.RoleClient, acct.Role)
	assert.Equal(t, "Acme Traders", acct.Name)
	assert.Equal(t, acct.ID, e.AccountID)
	assert.Equal(t, []string{queue.EntityCreated}, events.types())

	_, _, err = svc.Create(ctx, entityInput("acme"))
	require.ErrorIs(t, err, apperr.ErrUsernameTaken)

	bad := entityInput("other")
	bad.Province = "Narnia"
	_, _, err = svc.Create(ctx, bad)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEntityToggleCascadesToSessions(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	svc := NewEntityService(s, nil, bcrypt.MinCost)
	e, _, err := svc.Create(ctx, entityInput("acme"))
	require.NoError(t, err)

	gate := auth.NewGate(s, auth.Config{Secret: "k"})
	res, err := gate.Login(ctx, auth.LoginInput{Username: "acme", Password: "secret"})
	require.NoError(t, err)

	off, err := svc.ToggleStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	_, err = gate.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, apperr.ErrSessionExpired)
	_, err = gate.Login(ctx, auth.LoginInput{Username: "acme", Password: "secret"})
	require.ErrorIs(t, err, apperr.ErrAccountInactive)

	on, err := svc.ToggleStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)
	_, err = gate.Login(ctx, auth.LoginInput{Username: "acme", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.ToggleStatus(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrEntityNotFound)
}

func TestEntityUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	svc := NewEntityService(s, nil, bcrypt.MinCost)
	e, _, err := svc.Create(ctx, entityInput("acme"))
	require.NoError(t, err)

	name := "Acme Holdings"
	got, err := svc.Update(ctx, e.ID, EntityPatch{BusinessName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.BusinessName)
	assert.Equal(t, "1234567", got.NTN)
	assert.True(t, got.Active)

	bad := "Unknown"
	_, err = svc.Update(ctx, e.ID, EntityPatch{RegistrationType: &bad})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEntityResetPassword(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	svc := NewEntityService(s, nil, bcrypt.MinCost)
	e, _, err := svc.Create(ctx, entityInput("acme"))
	require.NoError(t, err)

	require.ErrorIs(t, svc.ResetPassword(ctx, e.ID, ""), apperr.ErrValidation)
	require.NoError(t, svc.ResetPassword(ctx, e.ID, "n3w"))

	gate := auth.NewGate(s, auth.Config{Secret: "k"})
	_, err = gate.Login(ctx, auth.LoginInput{Username: "acme", Password: "secret"})
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = gate.Login(ctx, auth.LoginInput{Username: "acme", Password: "n3w"})
	require.NoError(t, err)
}

func TestEntityListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	svc := NewEntityService(s, nil, bcrypt.MinCost)
	for _, u := range []string{"a", "b", "c"} {
		_, _, err := svc.Create(ctx, entityInput(u))
		require.NoError(t, err)
	}
	in := entityInput("d")
	in.BusinessName = "Delta Foods"
	in.Province = model.ProvincePunjab
	d, _, err := svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = svc.ToggleStatus(ctx, d.ID)
	require.NoError(t, err)

	page, err := svc.List(ctx, EntityFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 4, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.Equal(t, 3, page.Stats.ActiveTotal)
	assert.Equal(t, 1, page.Stats.ActiveProvinceTotal)

	page, err = svc.List(ctx, EntityFilter{BusinessName: "delta", Status: "Inactive"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, d.ID, page.Data[0].ID)

	page, err = svc.List(ctx, EntityFilter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	later, err := ParseCreatedRange(time.Now().Add(time.Hour).UTC().Format(time.RFC3339), "")
	require.NoError(t, err)
	page, err = svc.List(ctx, EntityFilter{Created: later})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 0, page.Meta.Total)
	assert.Equal(t, 3, page.Stats.ActiveTotal)
}
