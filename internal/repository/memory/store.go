// Package memory is a repository.Store backed by hashicorp/go-memdb.  It
// is used by the test suites and by STORE_DRIVER=memory for local runs.
// memdb serialises write transactions, which is what makes the
// check-then-insert of a live session and the deactivation cascade atomic
// here.
package memory

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/iliyamo/invoicing-portal/internal/repository"
)

// Store is the in-memory backend.  A Store created by WithTx carries the
// running write transaction and routes every call through it.
type Store struct {
	db  *memdb.MemDB
	txn *memdb.Txn
}

// New creates an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(Schema())
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Accounts() repository.AccountStore { return accounts{s} }
func (s *Store) Sessions() repository.SessionStore { return sessions{s} }
func (s *Store) Entities() repository.EntityStore  { return entities{s} }
func (s *Store) Buyers() repository.BuyerStore     { return buyers{s} }
func (s *Store) Invoices() repository.InvoiceStore { return invoices{s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// WithTx runs fn inside one write transaction.  fn must only use tx;
// writing through the outer store while the transaction is open blocks.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.txn != nil {
		return fn(ctx, s)
	}
	return s.write(func(txn *memdb.Txn) error {
		return fn(ctx, &Store{db: s.db, txn: txn})
	})
}

func (s *Store) write(fn func(txn *memdb.Txn) error) (err error) {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(true)
	defer func() {
		if r := recover(); r != nil {
			txn.Abort()
			panic(r)
		}
	}()
	if err = fn(txn); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) read(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(txn)
}

// first returns the single object matching index=args or ErrNotFound.
func first(txn *memdb.Txn, table, index string, args ...any) (any, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	return raw, nil
}

var _ repository.Store = (*Store)(nil)
