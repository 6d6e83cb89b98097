package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/model"
)

func TestBuyerLifecycleIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	mine := newTenant(t, s, "mine")
	other := newTenant(t, s, "other")
	svc := NewBuyerService(s)

	b := newBuyer(t, s, mine, "Beta")
	addr := "Hyderabad"
	got, err := svc.Update(ctx, mine, b.ID, BuyerPatch{FullAddress: &addr})
	require.NoError(t, err)
	assert.Equal(t, addr, got.FullAddress)
	assert.Equal(t, "Beta", got.BuyerName)

	_, err = svc.Update(ctx, other, b.ID, BuyerPatch{FullAddress: &addr})
	require.ErrorIs(t, err, apperr.ErrBuyerNotFound)
	_, err = svc.ToggleStatus(ctx, other, b.ID)
	require.ErrorIs(t, err, apperr.ErrBuyerNotFound)

	off, err := svc.ToggleStatus(ctx, mine, b.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	all, err := svc.List(ctx, mine, BuyerFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Data, 1)
	active, err := svc.ListActive(ctx, mine)
	require.NoError(t, err)
	assert.Empty(t, active)
	foreign, err := svc.List(ctx, other, BuyerFilter{})
	require.NoError(t, err)
	assert.Empty(t, foreign.Data)
}

func TestBuyerListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	mine := newTenant(t, s, "mine")
	other := newTenant(t, s, "other")
	svc := NewBuyerService(s)
	day := func(d int) time.Time { return time.Date(2025, 1, d, 12, 0, 0, 0, time.UTC) }

	add := func(name, ntn, province string, created time.Time) *model.Buyer {
		svc.now = fixedClock(created)
		b, err := svc.Create(ctx, mine, BuyerInput{
			BuyerName:        name,
			NTN:              ntn,
			RegistrationType: model.RegistrationRegistered,
			Province:         province,
			FullAddress:      "Lahore",
		})
		require.NoError(t, err)
		return b
	}
	add("Alpha Traders", "NTN-100", model.ProvincePunjab, day(1))
	beta := add("Beta Mills", "ntn-200", model.ProvinceSindh, day(2))
	add("Gamma Foods", "NTN-300", model.ProvinceSindh, day(3))
	delta := add("Delta Steel", "NTN-400", model.ProvincePunjab, day(4))
	_, err := svc.ToggleStatus(ctx, mine, delta.ID)
	require.NoError(t, err)
	newBuyer(t, s, other, "Foreign Co")

	page, err := svc.List(ctx, mine, BuyerFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, delta.ID, page.Data[0].ID, "newest first")
	assert.Equal(t, PageMeta{Page: 1, Limit: 3, Total: 4, TotalPages: 2}, page.Meta)
	assert.Equal(t, ListStats{ActiveTotal: 3, ActiveProvinceTotal: 2}, page.Stats)

	page, err = svc.List(ctx, mine, BuyerFilter{BuyerName: "mills", NTN: "NTN-2"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, beta.ID, page.Data[0].ID)

	page, err = svc.List(ctx, mine, BuyerFilter{Province: model.ProvincePunjab, Status: "Inactive"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, delta.ID, page.Data[0].ID)

	created, err := ParseCreatedRange("2025-01-02", "2025-01-03")
	require.NoError(t, err)
	page, err = svc.List(ctx, mine, BuyerFilter{Created: created})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Meta.Total)
	// Stats ignore the filter.
	assert.Equal(t, 3, page.Stats.ActiveTotal)
}

func TestParseCreatedRange(t *testing.T) {
	r, err := ParseCreatedRange("", "")
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Now()))

	r, err = ParseCreatedRange("2025-01-02T00:00:00Z", "2025-01-02")
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2025, 1, 2, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)))

	_, err = ParseCreatedRange("yesterday", "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = ParseCreatedRange("2025-02-01", "2025-01-01")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBuyerValidation(t *testing.T) {
	s := newMemStore(t)
	tenant := newTenant(t, s, "acme")
	_, err := NewBuyerService(s).Create(context.Background(), tenant, BuyerInput{
		BuyerName:        "X",
		RegistrationType: "Somewhat Registered",
		Province:         model.ProvinceSindh,
		FullAddress:      "y",
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}
