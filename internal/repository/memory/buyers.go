package memory

import (
	"context"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type buyers struct{ s *Store }

func (r buyers) Create(_ context.Context, b *model.Buyer) error {
	return r.s.write(func(txn *memdb.Txn) error {
		return txn.Insert(tableBuyers, cloneBuyer(b))
	})
}

func (r buyers) GetForEntity(_ context.Context, entityID, id string) (*model.Buyer, error) {
	var out *model.Buyer
	err := r.s.read(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableBuyers, indexID, id)
		if err != nil {
			return err
		}
		b := raw.(*model.Buyer)
		if b.EntityID != entityID {
			return repository.ErrNotFound
		}
		out = cloneBuyer(b)
		return nil
	})
	return out, err
}

// FindActiveByName walks only the (entity, name) index; the oldest active
// match wins, like the SQL backend.
func (r buyers) FindActiveByName(_ context.Context, entityID, name string) (*model.Buyer, error) {
	var out *model.Buyer
	err := r.s.read(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableBuyers, indexEntityName, entityID, name)
		if err != nil {
			return err
		}
		for raw := it.Next(); raw != nil; raw = it.Next() {
			b := raw.(*model.Buyer)
			if b.Active && (out == nil || b.CreatedAt.Before(out.CreatedAt)) {
				out = b
			}
		}
		if out == nil {
			return repository.ErrNotFound
		}
		out = cloneBuyer(out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r buyers) Update(_ context.Context, b *model.Buyer) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableBuyers, indexID, b.ID)
		if err != nil {
			return err
		}
		cur := raw.(*model.Buyer)
		if cur.EntityID != b.EntityID {
			return repository.ErrNotFound
		}
		next := cloneBuyer(b)
		next.CreatedAt = cur.CreatedAt
		return txn.Insert(tableBuyers, next)
	})
}

func (r buyers) ListByEntity(_ context.Context, entityID string) ([]model.Buyer, error) {
	out := make([]model.Buyer, 0)
	err := r.s.read(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableBuyers, "entity", entityID)
		if err != nil {
			return err
		}
		for raw := it.Next(); raw != nil; raw = it.Next() {
			out = append(out, *cloneBuyer(raw.(*model.Buyer)))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}
