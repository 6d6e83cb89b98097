package model

import "time"

// Session records one login of an account.  The bearer token itself is
// never persisted; TokenHash holds its SHA-256 hex digest so a leaked
// sessions table cannot be replayed.  At most one session per account may
// have Active set at any time; the stores enforce this with a conditional
// write.
//
// Fields:
//  ID          – UUID primary key.
//  AccountID   – owner of the session.
//  TokenHash   – SHA-256 hex digest of the issued bearer token.
//  IPAddress   – client address at login time.
//  UserAgent   – client user agent at login time.
//  LoggedInAt  – creation timestamp.
//  LoggedOutAt – termination timestamp (nil while active).
//  ExpiresAt   – expiry of the bearer token bound to this session.
//  Active      – whether the session still authorises requests.
type Session struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	TokenHash   string     `json:"-"`
	IPAddress   string     `json:"ip_address,omitempty"`
	UserAgent   string     `json:"user_agent,omitempty"`
	LoggedInAt  time.Time  `json:"logged_in_at"`
	LoggedOutAt *time.Time `json:"logged_out_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Active      bool       `json:"active"`
}

// Stale reports whether the token bound to an active session has already
// expired at the given instant.  Stale sessions no longer authorise
// anything and are retired when the account logs in again.
func (s *Session) Stale(now time.Time) bool {
	return s.Active && !s.ExpiresAt.After(now)
}
