package memory

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type sessions struct{ s *Store }

// liveSessions returns copies of the account's active sessions.
func liveSessions(txn *memdb.Txn, accountID string) ([]*model.Session, error) {
	it, err := txn.Get(tableSessions, "account", accountID)
	if err != nil {
		return nil, err
	}
	var out []*model.Session
	for raw := it.Next(); raw != nil; raw = it.Next() {
		if s := raw.(*model.Session); s.Active {
			out = append(out, cloneSession(s))
		}
	}
	return out, nil
}

func endSession(txn *memdb.Txn, s *model.Session, at time.Time) error {
	s.Active = false
	s.LoggedOutAt = &at
	return txn.Insert(tableSessions, s)
}

// CreateActive runs in one write txn.  memdb admits a single writer, so
// the entity check, the live session check and the insert cannot
// interleave with a deactivation.
func (r sessions) CreateActive(_ context.Context, sess *model.Session) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableEntities, "account", sess.AccountID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		case !raw.(*model.Entity).Active:
			return repository.ErrEntityInactive
		}
		live, err := liveSessions(txn, sess.AccountID)
		if err != nil {
			return err
		}
		for _, old := range live {
			if !old.Stale(sess.LoggedInAt) {
				return repository.ErrActiveSessionExists
			}
		}
		for _, old := range live {
			if err := endSession(txn, old, sess.LoggedInAt); err != nil {
				return err
			}
		}
		sess.Active = true
		return txn.Insert(tableSessions, cloneSession(sess))
	})
}

func (r sessions) GetActiveByToken(_ context.Context, tokenHash string) (*model.Session, error) {
	var out *model.Session
	err := r.s.read(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableSessions, "token", tokenHash)
		if err != nil {
			return err
		}
		if s := raw.(*model.Session); s.Active {
			out = cloneSession(s)
			return nil
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r sessions) TerminateByToken(_ context.Context, tokenHash string, at time.Time) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableSessions, "token", tokenHash)
		if err != nil {
			return err
		}
		s := raw.(*model.Session)
		if !s.Active {
			return repository.ErrNotFound
		}
		return endSession(txn, cloneSession(s), at)
	})
}
