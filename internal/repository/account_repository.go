package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

type AccountRepo struct{ DB dbtx }

func NewAccountRepo(db dbtx) *AccountRepo { return &AccountRepo{DB: db} }

const accountCols = "id,name,username,password_hash,role,settings,created_at,updated_at"

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	settings, err := marshalSettings(a.Settings)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO accounts ("+accountCols+") VALUES (?,?,?,?,?,?,?,?)",
		a.ID, a.Name, a.Username, a.PasswordHash, a.Role, settings, a.CreatedAt, a.UpdatedAt)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id))
}

// GetByUsername fetches an account by its login handle.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE username=? LIMIT 1", username))
}

// UpdatePassword stores a new bcrypt hash.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET password_hash=?, updated_at=? WHERE id=?", hash, at, id)
	if err != nil {
		return err
	}
	return affected(res)
}

// UpdateSettings replaces the settings document.
func (r *AccountRepo) UpdateSettings(ctx context.Context, id string, settings map[string]any, at time.Time) error {
	raw, err := marshalSettings(settings)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET settings=?, updated_at=? WHERE id=?", raw, at, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *AccountRepo) scanOne(row *sql.Row) (*model.Account, error) {
	var (
		a        model.Account
		settings []byte
	)
	err := row.Scan(&a.ID, &a.Name, &a.Username, &a.PasswordHash, &a.Role, &settings, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &a.Settings); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

func marshalSettings(s map[string]any) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}
