package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type entities struct{ s *Store }

func (r entities) CreateWithAccount(_ context.Context, e *model.Entity, a *model.Account) error {
	return r.s.write(func(txn *memdb.Txn) error {
		if err := insertAccount(txn, a); err != nil {
			return err
		}
		_, err := first(txn, tableEntities, "account", e.AccountID)
		if err == nil {
			return repository.ErrDuplicate
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return txn.Insert(tableEntities, cloneEntity(e))
	})
}

func (r entities) get(index, key string) (*model.Entity, error) {
	var out *model.Entity
	err := r.s.read(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableEntities, index, key)
		if err != nil {
			return err
		}
		out = cloneEntity(raw.(*model.Entity))
		return nil
	})
	return out, err
}

func (r entities) GetByID(_ context.Context, id string) (*model.Entity, error) {
	return r.get(indexID, id)
}

func (r entities) GetByAccountID(_ context.Context, accountID string) (*model.Entity, error) {
	return r.get("account", accountID)
}

func (r entities) Update(_ context.Context, e *model.Entity) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableEntities, indexID, e.ID)
		if err != nil {
			return err
		}
		cur := raw.(*model.Entity)
		next := cloneEntity(e)
		next.AccountID = cur.AccountID
		next.Active = cur.Active
		next.CreatedAt = cur.CreatedAt
		return txn.Insert(tableEntities, next)
	})
}

// SetActive flips the flag and, on deactivation, ends the account's live
// sessions in the same write transaction.
func (r entities) SetActive(_ context.Context, id string, active bool, at time.Time) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableEntities, indexID, id)
		if err != nil {
			return err
		}
		e := cloneEntity(raw.(*model.Entity))
		e.Active = active
		e.UpdatedAt = at
		if err := txn.Insert(tableEntities, e); err != nil {
			return err
		}
		if active {
			return nil
		}
		live, err := liveSessions(txn, e.AccountID)
		if err != nil {
			return err
		}
		for _, s := range live {
			if err := endSession(txn, s, at); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r entities) List(context.Context) ([]model.Entity, error) {
	out := make([]model.Entity, 0)
	err := r.s.read(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableEntities, indexID)
		if err != nil {
			return err
		}
		for raw := it.Next(); raw != nil; raw = it.Next() {
			out = append(out, *cloneEntity(raw.(*model.Entity)))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}
