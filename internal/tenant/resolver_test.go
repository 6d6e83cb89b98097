package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/auth"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository/memory"
)

func seed(t *testing.T, s *memory.Store, name string) (*model.Entity, *model.Account) {
	t.Helper()
	now := time.Now().UTC()
	a := &model.Account{ID: uuid.NewString(), Username: name, Role: model.RoleClient, CreatedAt: now}
	e := &model.Entity{ID: uuid.NewString(), AccountID: a.ID, BusinessName: name, Active: true, CreatedAt: now}
	require.NoError(t, s.Entities().CreateWithAccount(context.Background(), e, a))
	return e, a
}

func identity(a *model.Account) *auth.Identity { return &auth.Identity{Account: a} }

func TestClientIgnoresSelector(t *testing.T) {
	s, err := memory.New()
	require.NoError(t, err)
	mine, me := seed(t, s, "mine")
	other, _ := seed(t, s, "other")

	d := NewDispatcher(s.Entities(), AllowAll{})
	got, err := d.Resolve(context.Background(), identity(me), other.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)
}

func TestClientWithoutEntity(t *testing.T) {
	s, err := memory.New()
	require.NoError(t, err)
	d := NewDispatcher(s.Entities(), AllowAll{})
	orphan := &model.Account{ID: uuid.NewString(), Role: model.RoleClient}
	_, err = d.Resolve(context.Background(), identity(orphan), "")
	require.ErrorIs(t, err, apperr.ErrNoEntityForAccount)
}

func TestAdminSelection(t *testing.T) {
	s, err := memory.New()
	require.NoError(t, err)
	e, _ := seed(t, s, "acme")
	admin := &model.Account{ID: uuid.NewString(), Role: model.RoleAdmin}
	d := NewDispatcher(s.Entities(), nil)
	ctx := context.Background()

	_, err = d.Resolve(ctx, identity(admin), "  ")
	require.ErrorIs(t, err, apperr.ErrTenantNotSelected)
	_, err = d.Resolve(ctx, identity(admin), uuid.NewString())
	require.ErrorIs(t, err, apperr.ErrTenantNotFound)

	got, err := d.Resolve(ctx, identity(admin), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
}

func TestAdminGrants(t *testing.T) {
	s, err := memory.New()
	require.NoError(t, err)
	a, _ := seed(t, s, "a")
	b, _ := seed(t, s, "b")
	limited := &model.Account{ID: "ops-1", Role: model.RoleAdmin}
	super := &model.Account{ID: "ops-2", Role: model.RoleAdmin}
	stranger := &model.Account{ID: "ops-3", Role: model.RoleAdmin}

	grants, err := ParseGrants("ops-1=" + a.ID + "; ops-2=*")
	require.NoError(t, err)
	d := NewDispatcher(s.Entities(), grants)
	ctx := context.Background()

	_, err = d.Resolve(ctx, identity(limited), a.ID)
	require.NoError(t, err)
	_, err = d.Resolve(ctx, identity(limited), b.ID)
	require.ErrorIs(t, err, apperr.ErrTenantForbidden)
	_, err = d.Resolve(ctx, identity(super), b.ID)
	require.NoError(t, err)
	_, err = d.Resolve(ctx, identity(stranger), a.ID)
	require.ErrorIs(t, err, apperr.ErrTenantForbidden)
}

func TestUnknownRole(t *testing.T) {
	s, err := memory.New()
	require.NoError(t, err)
	d := NewDispatcher(s.Entities(), AllowAll{})
	_, err = d.Resolve(context.Background(), identity(&model.Account{Role: "auditor"}), "x")
	require.ErrorIs(t, err, apperr.ErrForbiddenRole)
}

func TestParseGrants(t *testing.T) {
	g, err := ParseGrants("")
	require.NoError(t, err)
	assert.IsType(t, AllowAll{}, g)

	_, err = ParseGrants("=e1")
	require.Error(t, err)
	_, err = ParseGrants("nobody")
	require.Error(t, err)
}
