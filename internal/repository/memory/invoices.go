package memory

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type invoices struct{ s *Store }

// owned returns the stored invoice if it belongs to entityID.
func owned(txn *memdb.Txn, entityID, id string) (*model.Invoice, error) {
	raw, err := first(txn, tableInvoices, indexID, id)
	if err != nil {
		return nil, err
	}
	inv := raw.(*model.Invoice)
	if inv.EntityID != entityID {
		return nil, repository.ErrNotFound
	}
	return inv, nil
}

func (r invoices) Create(_ context.Context, inv *model.Invoice) error {
	return r.s.write(func(txn *memdb.Txn) error {
		return txn.Insert(tableInvoices, cloneInvoice(inv))
	})
}

func (r invoices) GetForEntity(_ context.Context, entityID, id string) (*model.Invoice, error) {
	var out *model.Invoice
	err := r.s.read(func(txn *memdb.Txn) error {
		inv, err := owned(txn, entityID, id)
		if err != nil {
			return err
		}
		out = cloneInvoice(inv)
		return nil
	})
	return out, err
}

func (r invoices) Replace(_ context.Context, inv *model.Invoice) error {
	return r.s.write(func(txn *memdb.Txn) error {
		cur, err := owned(txn, inv.EntityID, inv.ID)
		if err != nil {
			return err
		}
		if cur.Sent {
			return repository.ErrNotFound
		}
		next := cloneInvoice(inv)
		next.CreatedAt = cur.CreatedAt
		next.Sent = false
		next.SentAt = nil
		return txn.Insert(tableInvoices, next)
	})
}

func (r invoices) DeleteUnsent(_ context.Context, entityID, id string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		cur, err := owned(txn, entityID, id)
		if err != nil {
			return err
		}
		if cur.Sent {
			return repository.ErrNotFound
		}
		return txn.Delete(tableInvoices, cur)
	})
}

func (r invoices) ListByEntity(_ context.Context, entityID string) ([]model.Invoice, error) {
	out := make([]model.Invoice, 0)
	err := r.s.read(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableInvoices, "entity", entityID)
		if err != nil {
			return err
		}
		for raw := it.Next(); raw != nil; raw = it.Next() {
			out = append(out, *cloneInvoice(raw.(*model.Invoice)))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r invoices) MarkSent(_ context.Context, entityID, id string, at time.Time) error {
	return r.s.write(func(txn *memdb.Txn) error {
		cur, err := owned(txn, entityID, id)
		if err != nil {
			return err
		}
		if cur.Sent {
			return nil
		}
		next := cloneInvoice(cur)
		next.Sent = true
		next.SentAt = &at
		next.UpdatedAt = at
		return txn.Insert(tableInvoices, next)
	})
}
