package repository

import (
	"context"
	"time"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

// Store groups the record stores of one backend.  A Store handed to the
// WithTx callback routes every call through the same transaction.
type Store interface {
	Accounts() AccountStore
	Sessions() SessionStore
	Entities() EntityStore
	Buyers() BuyerStore
	Invoices() InvoiceStore

	// WithTx runs fn atomically.  When fn returns an error every write
	// made through tx is discarded.  Calling WithTx on a transactional
	// Store joins the running transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

// AccountStore persists login identities.
type AccountStore interface {
	// Create inserts a new account.  ErrDuplicate when the username is taken.
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	UpdateSettings(ctx context.Context, id string, settings map[string]any, at time.Time) error
}

// SessionStore persists login sessions.
type SessionStore interface {
	// CreateActive stores s as the live session of its account.  Any live
	// session of the same account whose token expired at or before
	// s.LoggedInAt is retired in the same atomic step; if a live session
	// remains, ErrActiveSessionExists is returned and nothing is written.
	// The account's entity, if it has one, is checked in the same step:
	// when it is inactive ErrEntityInactive is returned, so a login racing
	// a deactivation never leaves a live session behind.
	CreateActive(ctx context.Context, s *model.Session) error
	// GetActiveByToken returns the live session bound to tokenHash.
	GetActiveByToken(ctx context.Context, tokenHash string) (*model.Session, error)
	// TerminateByToken marks the live session bound to tokenHash inactive.
	// ErrNotFound when there is none.
	TerminateByToken(ctx context.Context, tokenHash string, at time.Time) error
}

// EntityStore persists tenants.
type EntityStore interface {
	// CreateWithAccount inserts the client account and its entity as one
	// unit.  ErrDuplicate when the username is taken.
	CreateWithAccount(ctx context.Context, e *model.Entity, a *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Entity, error)
	GetByAccountID(ctx context.Context, accountID string) (*model.Entity, error)
	// Update rewrites the descriptive fields of an entity.  Active is not
	// touched; use SetActive.
	Update(ctx context.Context, e *model.Entity) error
	// SetActive flips the entity flag.  Deactivation also terminates every
	// live session of the entity's account before the call returns.
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	List(ctx context.Context) ([]model.Entity, error)
}

// BuyerStore persists buyers.  Every lookup is scoped by entity.
type BuyerStore interface {
	Create(ctx context.Context, b *model.Buyer) error
	GetForEntity(ctx context.Context, entityID, id string) (*model.Buyer, error)
	// FindActiveByName matches BuyerName exactly.
	FindActiveByName(ctx context.Context, entityID, name string) (*model.Buyer, error)
	// Update rewrites a buyer identified by (EntityID, ID).
	Update(ctx context.Context, b *model.Buyer) error
	ListByEntity(ctx context.Context, entityID string) ([]model.Buyer, error)
}

// InvoiceStore persists invoices.  Every lookup is scoped by entity.
type InvoiceStore interface {
	Create(ctx context.Context, inv *model.Invoice) error
	GetForEntity(ctx context.Context, entityID, id string) (*model.Invoice, error)
	// Replace rewrites buyer, header, items and total of an unsent invoice.
	// ErrNotFound when the invoice is missing, foreign or already sent.
	Replace(ctx context.Context, inv *model.Invoice) error
	// DeleteUnsent removes an unsent invoice.  ErrNotFound when the
	// invoice is missing, foreign or already sent.
	DeleteUnsent(ctx context.Context, entityID, id string) error
	// ListByEntity returns the tenant's invoices, newest first.
	ListByEntity(ctx context.Context, entityID string) ([]model.Invoice, error)
	// MarkSent sets the one way sent flag.  Marking a sent invoice again
	// keeps its original SentAt.
	MarkSent(ctx context.Context, entityID, id string, at time.Time) error
}
