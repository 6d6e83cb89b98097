package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/queue"
)

func sampleInput(buyerID string) InvoiceInput {
	return InvoiceInput{
		BuyerID: buyerID,
		Header:  model.InvoiceHeader{InvoiceNumber: "INV-1", InvoiceType: "Sale Invoice"},
		Items:   []model.RawItem{{Quantity: 10, UnitPrice: 100, SalesTax: 170, Discount: 50}},
	}
}

func TestInvoiceCreateComputesTotals(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	tenant := newTenant(t, s, "acme")
	buyer := newBuyer(t, s, tenant, "Beta")
	events := &recorder{}
	svc := NewInvoiceService(s, events)
	svc.now = fixedClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	inv, err := svc.Create(ctx, tenant, sampleInput(buyer.ID))
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, inv.EntityID)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].SalesValue.Equal(dec("1000")))
	assert.True(t, inv.TotalAmount.Equal(dec("1120")))
	assert.Equal(t, svc.now(), inv.InvoiceDate)
	assert.Equal(t, []string{queue.InvoiceCreated}, events.types())

	got, err := svc.Get(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(dec("1120")))
}

func TestInvoiceRejectsForeignOrInactiveBuyer(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	mine := newTenant(t, s, "mine")
	other := newTenant(t, s, "other")
	foreign := newBuyer(t, s, other, "Foreign")
	own := newBuyer(t, s, mine, "Own")
	svc := NewInvoiceService(s, nil)

	_, err := svc.Create(ctx, mine, sampleInput(foreign.ID))
	require.ErrorIs(t, err, apperr.ErrBuyerNotFound)

	inv, err := svc.Create(ctx, mine, sampleInput(own.ID))
	require.NoError(t, err)
	_, err = svc.Update(ctx, mine, inv.ID, sampleInput(foreign.ID))
	require.ErrorIs(t, err, apperr.ErrBuyerNotFound)

	_, err = NewBuyerService(s).ToggleStatus(ctx, mine, own.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, mine, sampleInput(own.ID))
	require.ErrorIs(t, err, apperr.ErrBuyerNotFound)
}

func TestInvoiceUpdateRecomputes(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	tenant := newTenant(t, s, "acme")
	buyer := newBuyer(t, s, tenant, "Beta")
	svc := NewInvoiceService(s, nil)

	inv, err := svc.Create(ctx, tenant, sampleInput(buyer.ID))
	require.NoError(t, err)

	in := sampleInput(buyer.ID)
	in.Header.InvoiceNumber = "INV-1A"
	in.Items = []model.RawItem{{Quantity: "2", UnitPrice: "5"}, {Quantity: 1, UnitPrice: 1, FurtherTax: "0.5"}}
	upd, err := svc.Update(ctx, tenant, inv.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "INV-1A", upd.InvoiceNumber)
	assert.True(t, upd.TotalAmount.Equal(dec("11.5")))
	assert.Equal(t, inv.InvoiceDate, upd.InvoiceDate)

	got, err := svc.Get(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestSentInvoiceIsFrozen(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	tenant := newTenant(t, s, "acme")
	buyer := newBuyer(t, s, tenant, "Beta")
	svc := NewInvoiceService(s, nil)

	inv, err := svc.Create(ctx, tenant, sampleInput(buyer.ID))
	require.NoError(t, err)
	sent, err := svc.MarkSent(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.True(t, sent.Sent)

	_, err = svc.Update(ctx, tenant, inv.ID, sampleInput(buyer.ID))
	require.ErrorIs(t, err, apperr.ErrNotFoundOrSent)

	errSent := svc.Delete(ctx, tenant, inv.ID)
	errMissing := svc.Delete(ctx, tenant, "does-not-exist")
	require.ErrorIs(t, errSent, apperr.ErrNotFoundOrSent)
	assert.Equal(t, errMissing, errSent)

	still, err := svc.Get(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.True(t, still.TotalAmount.Equal(dec("1120")))
}

func TestInvoiceTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	mine := newTenant(t, s, "mine")
	other := newTenant(t, s, "other")
	buyer := newBuyer(t, s, mine, "Beta")
	svc := NewInvoiceService(s, nil)

	inv, err := svc.Create(ctx, mine, sampleInput(buyer.ID))
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, inv.ID)
	require.ErrorIs(t, err, apperr.ErrInvoiceNotFound)
	require.ErrorIs(t, svc.Delete(ctx, other, inv.ID), apperr.ErrNotFoundOrSent)
	_, err = svc.MarkSent(ctx, other, inv.ID)
	require.ErrorIs(t, err, apperr.ErrInvoiceNotFound)

	list, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(ctx, mine, inv.ID))
	list, err = svc.List(ctx, mine)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInvoiceRequiresNumber(t *testing.T) {
	s := newMemStore(t)
	tenant := newTenant(t, s, "acme")
	buyer := newBuyer(t, s, tenant, "Beta")
	in := sampleInput(buyer.ID)
	in.Header.InvoiceNumber = " "
	_, err := NewInvoiceService(s, nil).Create(context.Background(), tenant, in)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestInvoiceTotalKeepsEveryDigit(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	tenant := newTenant(t, s, "acme")
	buyer := newBuyer(t, s, tenant, "Beta")
	svc := NewInvoiceService(s, nil)

	in := sampleInput(buyer.ID)
	in.Items = []model.RawItem{
		{Quantity: "0.333333333", UnitPrice: 3},
		{Quantity: "1", UnitPrice: "0.0000000001", SalesTax: "0.12345678912345"},
	}
	inv, err := svc.Create(ctx, tenant, in)
	require.NoError(t, err)
	want := dec("1.12345678822345")
	assert.True(t, inv.TotalAmount.Equal(want), inv.TotalAmount.String())

	got, err := svc.Get(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(want), got.TotalAmount.String())
	sum := got.Items[0].TotalItemValue.Add(got.Items[1].TotalItemValue)
	assert.True(t, got.TotalAmount.Equal(sum))
}
