// Package auth admits callers.  Gate issues a bearer token per login,
// keeps at most one live session per account and checks on every request
// that the token still maps to a live session of an admitted account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	applog "github.com/iliyamo/invoicing-portal/internal/log"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
	"github.com/iliyamo/invoicing-portal/internal/utils"
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Identity is the authenticated caller of a request.
type Identity struct {
	Account *model.Account
	Session *model.Session
}

// Role returns the caller's role, or "" for a nil identity.
func (i *Identity) Role() string {
	if i == nil || i.Account == nil {
		return ""
	}
	return i.Account.Role
}

// LoginInput carries the credentials and client details of a login.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is returned to a caller that was admitted.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   *model.Account `json:"user"`
	Entity    *model.Entity  `json:"entity,omitempty"`
}

// Config holds the token settings of a Gate.
type Config struct {
	Secret string
	TTL    time.Duration
}

// Gate is the authentication front door.
type Gate struct {
	store repository.Store
	cfg   Config
	now   func() time.Time
}

// NewGate builds a Gate over store.  A zero TTL means DefaultSessionTTL.
func NewGate(store repository.Store, cfg Config) *Gate {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	return &Gate{store: store, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Login verifies credentials, refuses a second concurrent login and
// creates the account's live session.
func (g *Gate) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	log := applog.GetLogger(ctx).WithField("username", in.Username)

	acct, err := g.store.Accounts().GetByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !utils.VerifyPassword(acct.PasswordHash, in.Password) {
		return nil, apperr.ErrInvalidCredentials
	}

	var entity *model.Entity
	if acct.IsClient() {
		entity, err = g.store.Entities().GetByAccountID(ctx, acct.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrAccountInactive
		}
		if err != nil {
			return nil, fmt.Errorf("load entity: %w", err)
		}
		if !entity.Active {
			return nil, apperr.ErrAccountInactive
		}
	}

	now := g.now()
	tok, err := utils.NewSessionToken(g.cfg.Secret, acct.ID, acct.Role, g.cfg.TTL, now)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	sess := &model.Session{
		ID:         uuid.NewString(),
		AccountID:  acct.ID,
		TokenHash:  utils.HashToken(tok.Token),
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		LoggedInAt: now,
		ExpiresAt:  tok.Exp,
	}
	// The store checks for a live session and inserts in one atomic step,
	// so two racing logins cannot both get through.  It re-checks the
	// entity in that step too: the read above may be stale by now.
	if err := g.store.Sessions().CreateActive(ctx, sess); err != nil {
		switch {
		case errors.Is(err, repository.ErrActiveSessionExists):
			log.Info("login refused: account already has a live session")
			return nil, apperr.ErrAlreadyLoggedIn
		case errors.Is(err, repository.ErrEntityInactive):
			log.Info("login refused: entity deactivated during login")
			return nil, apperr.ErrAccountInactive
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	log.WithFields(logrus.Fields{"account_id": acct.ID, "session_id": sess.ID}).Info("login")
	return &LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, Account: acct, Entity: entity}, nil
}

// Logout ends the live session bound to token.
func (g *Gate) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.ErrNoToken
	}
	err := g.store.Sessions().TerminateByToken(ctx, utils.HashToken(token), g.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrNoActiveSession
	}
	if err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	applog.GetLogger(ctx).Info("logout")
	return nil
}

// Authenticate maps a bearer token to the caller's identity.  The token
// must verify, map to a live session of the same account, and a client's
// entity must still be active.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := utils.ParseSessionToken(g.cfg.Secret, token)
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}
	sess, err := g.store.Sessions().GetActiveByToken(ctx, utils.HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.AccountID != claims.AccountID {
		return nil, apperr.ErrSessionExpired
	}
	acct, err := g.store.Accounts().GetByID(ctx, claims.AccountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrAccountMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acct.IsClient() {
		e, err := g.store.Entities().GetByAccountID(ctx, acct.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrEntityDeactivated
		}
		if err != nil {
			return nil, fmt.Errorf("load entity: %w", err)
		}
		if !e.Active {
			return nil, apperr.ErrEntityDeactivated
		}
	}
	return &Identity{Account: acct, Session: sess}, nil
}
