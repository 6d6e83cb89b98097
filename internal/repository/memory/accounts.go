package memory

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type accounts struct{ s *Store }

func insertAccount(txn *memdb.Txn, a *model.Account) error {
	_, err := first(txn, tableAccounts, "username", a.Username)
	if err == nil {
		return repository.ErrDuplicate
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return txn.Insert(tableAccounts, cloneAccount(a))
}

func (r accounts) Create(_ context.Context, a *model.Account) error {
	return r.s.write(func(txn *memdb.Txn) error { return insertAccount(txn, a) })
}

func (r accounts) get(index, key string) (*model.Account, error) {
	var out *model.Account
	err := r.s.read(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableAccounts, index, key)
		if err != nil {
			return err
		}
		out = cloneAccount(raw.(*model.Account))
		return nil
	})
	return out, err
}

func (r accounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	return r.get(indexID, id)
}

func (r accounts) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	return r.get("username", username)
}

func (r accounts) modify(id string, fn func(a *model.Account)) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableAccounts, indexID, id)
		if err != nil {
			return err
		}
		a := cloneAccount(raw.(*model.Account))
		fn(a)
		return txn.Insert(tableAccounts, a)
	})
}

func (r accounts) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	return r.modify(id, func(a *model.Account) {
		a.PasswordHash = hash
		a.UpdatedAt = at
	})
}

func (r accounts) UpdateSettings(_ context.Context, id string, settings map[string]any, at time.Time) error {
	return r.modify(id, func(a *model.Account) {
		a.Settings = cloneMap(settings)
		a.UpdatedAt = at
	})
}
