package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	applog "github.com/iliyamo/invoicing-portal/internal/log"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/queue"
	"github.com/iliyamo/invoicing-portal/internal/repository"
	"github.com/iliyamo/invoicing-portal/internal/taxcalc"
)

// InvoiceInput is the caller supplied part of an invoice.  Totals are
// never taken from here; they are recomputed from Items.
type InvoiceInput struct {
	BuyerID string
	Header  model.InvoiceHeader
	Items   []model.RawItem
}

// InvoiceService creates, rewrites and deletes invoices of one tenant.
type InvoiceService struct {
	store  repository.Store
	events queue.Publisher
	now    clock
}

func NewInvoiceService(store repository.Store, events queue.Publisher) *InvoiceService {
	return &InvoiceService{store: store, events: events, now: utcNow}
}

// activeBuyer loads a buyer that belongs to the tenant and is active.
func activeBuyer(ctx context.Context, buyers repository.BuyerStore, tenant *model.Entity, id string) (*model.Buyer, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.ErrBuyerNotFound
	}
	b, err := buyers.GetForEntity(ctx, tenant.ID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrBuyerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load buyer: %w", err)
	}
	if !b.Active {
		return nil, apperr.ErrBuyerNotFound
	}
	return b, nil
}

func checkHeader(h model.InvoiceHeader) error {
	if strings.TrimSpace(h.InvoiceNumber) == "" {
		return apperr.Validation("invoice number is required")
	}
	return nil
}

// Create stores a new invoice for tenant with server computed totals.
func (s *InvoiceService) Create(ctx context.Context, tenant *model.Entity, in InvoiceInput) (*model.Invoice, error) {
	if err := checkHeader(in.Header); err != nil {
		return nil, err
	}
	if _, err := activeBuyer(ctx, s.store.Buyers(), tenant, in.BuyerID); err != nil {
		return nil, err
	}
	now := s.now()
	items := taxcalc.ComputeAll(in.Items)
	inv := &model.Invoice{
		ID:            uuid.NewString(),
		EntityID:      tenant.ID,
		BuyerID:       in.BuyerID,
		InvoiceHeader: in.Header,
		Items:         items,
		TotalAmount:   taxcalc.Total(items),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = now
	}
	if err := s.store.Invoices().Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	applog.GetLogger(ctx).WithField("invoice_id", inv.ID).Info("invoice created")
	notify(ctx, s.events, queue.Event{
		Type: queue.InvoiceCreated, EntityID: tenant.ID, InvoiceID: inv.ID,
		InvoiceNumber: inv.InvoiceNumber, TotalAmount: inv.TotalAmount.String(), OccurredAt: now,
	})
	return inv, nil
}

// Update recomputes every item from the supplied raw items and replaces
// buyer, header, items and total.  Sent invoices are frozen and answer
// exactly like a missing invoice.
func (s *InvoiceService) Update(ctx context.Context, tenant *model.Entity, invoiceID string, in InvoiceInput) (*model.Invoice, error) {
	if err := checkHeader(in.Header); err != nil {
		return nil, err
	}
	if _, err := activeBuyer(ctx, s.store.Buyers(), tenant, in.BuyerID); err != nil {
		return nil, err
	}
	cur, err := s.store.Invoices().GetForEntity(ctx, tenant.ID, invoiceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrNotFoundOrSent
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	if cur.Sent {
		return nil, apperr.ErrNotFoundOrSent
	}

	items := taxcalc.ComputeAll(in.Items)
	next := *cur
	next.BuyerID = in.BuyerID
	next.InvoiceHeader = in.Header
	if next.InvoiceDate.IsZero() {
		next.InvoiceDate = cur.InvoiceDate
	}
	next.Items = items
	next.TotalAmount = taxcalc.Total(items)
	next.UpdatedAt = s.now()

	// Replace re-checks sent=false atomically; a MarkSent that landed
	// after the read above wins.
	if err := s.store.Invoices().Replace(ctx, &next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFoundOrSent
		}
		return nil, fmt.Errorf("replace invoice: %w", err)
	}
	notify(ctx, s.events, queue.Event{
		Type: queue.InvoiceUpdated, EntityID: tenant.ID, InvoiceID: next.ID,
		InvoiceNumber: next.InvoiceNumber, TotalAmount: next.TotalAmount.String(), OccurredAt: next.UpdatedAt,
	})
	return &next, nil
}

// Delete removes an unsent invoice of tenant.  Missing, foreign and sent
// invoices are reported identically.
func (s *InvoiceService) Delete(ctx context.Context, tenant *model.Entity, invoiceID string) error {
	err := s.store.Invoices().DeleteUnsent(ctx, tenant.ID, invoiceID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrNotFoundOrSent
	}
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	notify(ctx, s.events, queue.Event{Type: queue.InvoiceDeleted, EntityID: tenant.ID, InvoiceID: invoiceID})
	return nil
}

// Get returns one invoice of tenant.
func (s *InvoiceService) Get(ctx context.Context, tenant *model.Entity, invoiceID string) (*model.Invoice, error) {
	inv, err := s.store.Invoices().GetForEntity(ctx, tenant.ID, invoiceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	return inv, nil
}

// List returns tenant's invoices, newest first.
func (s *InvoiceService) List(ctx context.Context, tenant *model.Entity) ([]model.Invoice, error) {
	out, err := s.store.Invoices().ListByEntity(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

// MarkSent records that the invoice was submitted.  The flag is one way;
// once set, the invoice can no longer be changed or deleted.
func (s *InvoiceService) MarkSent(ctx context.Context, tenant *model.Entity, invoiceID string) (*model.Invoice, error) {
	now := s.now()
	err := s.store.Invoices().MarkSent(ctx, tenant.ID, invoiceID, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark invoice sent: %w", err)
	}
	inv, err := s.Get(ctx, tenant, invoiceID)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.events, queue.Event{Type: queue.InvoiceSent, EntityID: tenant.ID, InvoiceID: invoiceID, OccurredAt: now})
	return inv, nil
}
