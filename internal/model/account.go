package model

import "time"

// Role names stored on accounts.  The values match what earlier clients of
// the API already send and receive, so they stay lower case.
const (
	RoleAdmin  = "admin"  // platform operator, acts on a tenant selected per request
	RoleClient = "client" // tenant login, permanently bound to one entity
)

// ValidRole reports whether r is one of the known account roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleClient
}

// Account represents a login identity as stored in the `accounts` table
// (or the `accounts` collection when the document store is used).  Client
// accounts are created together with their Entity; admin accounts are
// created by an operator through the CLI.  Accounts are never deleted.
//
// Fields:
//  ID           – UUID primary key.
//  Name         – display name (the business name for client accounts).
//  Username     – unique login handle.
//  PasswordHash – bcrypt hash; only the reset path re-hashes it.
//  Role         – RoleAdmin or RoleClient.
//  Settings     – free-form UI configuration owned by the account.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	Role         string         `json:"role"`
	Settings     map[string]any `json:"settings,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsClient reports whether the account is bound to a single entity.
func (a *Account) IsClient() bool { return a != nil && a.Role == RoleClient }
