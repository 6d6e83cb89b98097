package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repos need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is the MySQL backed Store.
type SQLStore struct {
	db *sql.DB
	q  dbtx
}

// NewSQLStore wraps an open MySQL pool.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db, q: db} }

func (s *SQLStore) Accounts() AccountStore { return NewAccountRepo(s.q) }
func (s *SQLStore) Sessions() SessionStore { return NewSessionRepo(s.q) }
func (s *SQLStore) Entities() EntityStore  { return NewEntityRepo(s.q) }
func (s *SQLStore) Buyers() BuyerStore     { return NewBuyerRepo(s.q) }
func (s *SQLStore) Invoices() InvoiceStore { return NewInvoiceRepo(s.q) }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLStore) Close() error                   { return s.db.Close() }

// WithTx runs fn inside a transaction; a Store already bound to a
// transaction simply hands itself to fn.
func (s *SQLStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(ctx, s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(ctx, &SQLStore{db: s.db, q: tx}); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// atomic runs fn in its own transaction unless q already is one.
func atomic(ctx context.Context, q dbtx, fn func(q dbtx) error) (err error) {
	db, ok := q.(*sql.DB)
	if !ok {
		return fn(q)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// erDupEntry is MySQL's ER_DUP_ENTRY.
const erDupEntry = 1062

// isDuplicate reports a duplicate key error from the server.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}

// noRows maps sql.ErrNoRows to ErrNotFound.
func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// affected turns a zero row count into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
