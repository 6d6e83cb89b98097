package repository

import (
	"context"
	"time"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

type EntityRepo struct{ DB dbtx }

func NewEntityRepo(db dbtx) *EntityRepo { return &EntityRepo{DB: db} }

const entityCols = "id,account_id,image,business_name,registration_type,province,ntn,cnic,strn,full_address,active,created_at,updated_at"

// CreateWithAccount inserts the account row and then the entity row in
// one transaction.
func (r *EntityRepo) CreateWithAccount(ctx context.Context, e *model.Entity, a *model.Account) error {
	return atomic(ctx, r.DB, func(q dbtx) error {
		if err := NewAccountRepo(q).Create(ctx, a); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx,
			"INSERT INTO entities ("+entityCols+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)",
			e.ID, e.AccountID, e.Image, e.BusinessName, e.RegistrationType, e.Province,
			e.NTN, e.CNIC, e.STRN, e.FullAddress, e.Active, e.CreatedAt, e.UpdatedAt)
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	})
}

// GetByID fetches an entity by id.
func (r *EntityRepo) GetByID(ctx context.Context, id string) (*model.Entity, error) {
	return scanEntity(r.DB.QueryRowContext(ctx,
		"SELECT "+entityCols+" FROM entities WHERE id=? LIMIT 1", id))
}

// GetByAccountID fetches the entity owned by a client account.
func (r *EntityRepo) GetByAccountID(ctx context.Context, accountID string) (*model.Entity, error) {
	return scanEntity(r.DB.QueryRowContext(ctx,
		"SELECT "+entityCols+" FROM entities WHERE account_id=? LIMIT 1", accountID))
}

// Update rewrites the descriptive columns.
func (r *EntityRepo) Update(ctx context.Context, e *model.Entity) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE entities SET image=?, business_name=?, registration_type=?, province=?,
		 ntn=?, cnic=?, strn=?, full_address=?, updated_at=? WHERE id=?`,
		e.Image, e.BusinessName, e.RegistrationType, e.Province,
		e.NTN, e.CNIC, e.STRN, e.FullAddress, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	return affected(res)
}

// SetActive flips the entity flag.  On deactivation the account's live
// sessions are terminated inside the same transaction.  The entity row is
// locked FOR UPDATE; SessionRepo.CreateActive takes the same lock, so a
// login either commits before this runs or sees the entity inactive.
func (r *EntityRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return atomic(ctx, r.DB, func(q dbtx) error {
		var accountID string
		err := q.QueryRowContext(ctx,
			"SELECT account_id FROM entities WHERE id=? FOR UPDATE", id).Scan(&accountID)
		if err != nil {
			return noRows(err)
		}
		if _, err := q.ExecContext(ctx,
			"UPDATE entities SET active=?, updated_at=? WHERE id=?", active, at, id); err != nil {
			return err
		}
		if active {
			return nil
		}
		return terminateAllForAccount(ctx, q, accountID, at)
	})
}

// List returns every entity, newest first.
func (r *EntityRepo) List(ctx context.Context) ([]model.Entity, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+entityCols+" FROM entities ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*model.Entity, error) {
	var e model.Entity
	err := row.Scan(&e.ID, &e.AccountID, &e.Image, &e.BusinessName, &e.RegistrationType, &e.Province,
		&e.NTN, &e.CNIC, &e.STRN, &e.FullAddress, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	return &e, nil
}

