package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

// SessionRepo stores login sessions.  The nullable active_account_id
// column carries a UNIQUE index and is only set while the session is
// live, so MySQL itself refuses a second live session per account.
type SessionRepo struct{ DB dbtx }

func NewSessionRepo(db dbtx) *SessionRepo { return &SessionRepo{DB: db} }

const sessionCols = "id,account_id,token_hash,ip_address,user_agent,logged_in_at,logged_out_at,expires_at,active"

// CreateActive retires the account's expired live session (if any) and
// inserts s in one transaction.  The entity row is read FOR UPDATE first,
// so this serialises with EntityRepo.SetActive on the same row.  A 1062
// on the insert means another live session exists.
func (r *SessionRepo) CreateActive(ctx context.Context, s *model.Session) error {
	err := atomic(ctx, r.DB, func(q dbtx) error {
		var active bool
		err := q.QueryRowContext(ctx,
			"SELECT active FROM entities WHERE account_id=? LIMIT 1 FOR UPDATE", s.AccountID).Scan(&active)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// operators own no entity
		case err != nil:
			return err
		case !active:
			return ErrEntityInactive
		}
		if _, err := q.ExecContext(ctx,
			"UPDATE sessions SET active=0, active_account_id=NULL, logged_out_at=? WHERE active_account_id=? AND expires_at<=?",
			s.LoggedInAt, s.AccountID, s.LoggedInAt); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx,
			"INSERT INTO sessions ("+sessionCols+",active_account_id) VALUES (?,?,?,?,?,?,NULL,?,1,?)",
			s.ID, s.AccountID, s.TokenHash, s.IPAddress, s.UserAgent, s.LoggedInAt, s.ExpiresAt, s.AccountID)
		return err
	})
	if isDuplicate(err) {
		return ErrActiveSessionExists
	}
	if err != nil {
		return err
	}
	s.Active = true
	return nil
}

// GetActiveByToken returns the live session bound to tokenHash.
func (r *SessionRepo) GetActiveByToken(ctx context.Context, tokenHash string) (*model.Session, error) {
	var (
		s   model.Session
		out sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE token_hash=? AND active=1 LIMIT 1", tokenHash).
		Scan(&s.ID, &s.AccountID, &s.TokenHash, &s.IPAddress, &s.UserAgent, &s.LoggedInAt, &out, &s.ExpiresAt, &s.Active)
	if err != nil {
		return nil, noRows(err)
	}
	if out.Valid {
		s.LoggedOutAt = &out.Time
	}
	return &s, nil
}

// TerminateByToken marks the live session bound to tokenHash as logged out.
func (r *SessionRepo) TerminateByToken(ctx context.Context, tokenHash string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET active=0, active_account_id=NULL, logged_out_at=? WHERE token_hash=? AND active=1",
		at, tokenHash)
	if err != nil {
		return err
	}
	return affected(res)
}

// terminateAllForAccount ends every live session of an account.
func terminateAllForAccount(ctx context.Context, q dbtx, accountID string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		"UPDATE sessions SET active=0, active_account_id=NULL, logged_out_at=? WHERE account_id=? AND active=1",
		at, accountID)
	return err
}
