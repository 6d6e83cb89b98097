package repository

import (
	"context"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

type BuyerRepo struct{ DB dbtx }

func NewBuyerRepo(db dbtx) *BuyerRepo { return &BuyerRepo{DB: db} }

const buyerCols = "id,entity_id,buyer_name,registration_type,province,ntn,cnic,strn,full_address,active,created_at,updated_at"

// Create inserts a buyer row.
func (r *BuyerRepo) Create(ctx context.Context, b *model.Buyer) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO buyers ("+buyerCols+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		b.ID, b.EntityID, b.BuyerName, b.RegistrationType, b.Province,
		b.NTN, b.CNIC, b.STRN, b.FullAddress, b.Active, b.CreatedAt, b.UpdatedAt)
	return err
}

// GetForEntity fetches a buyer only if it belongs to entityID.
func (r *BuyerRepo) GetForEntity(ctx context.Context, entityID, id string) (*model.Buyer, error) {
	return scanBuyer(r.DB.QueryRowContext(ctx,
		"SELECT "+buyerCols+" FROM buyers WHERE id=? AND entity_id=? LIMIT 1", id, entityID))
}

// FindActiveByName matches the buyer name exactly.  The column uses a
// binary collation so the comparison is case sensitive.
func (r *BuyerRepo) FindActiveByName(ctx context.Context, entityID, name string) (*model.Buyer, error) {
	return scanBuyer(r.DB.QueryRowContext(ctx,
		"SELECT "+buyerCols+" FROM buyers WHERE entity_id=? AND buyer_name=? AND active=1 ORDER BY created_at LIMIT 1",
		entityID, name))
}

// Update rewrites a buyer of the given entity.
func (r *BuyerRepo) Update(ctx context.Context, b *model.Buyer) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE buyers SET buyer_name=?, registration_type=?, province=?, ntn=?, cnic=?, strn=?,
		 full_address=?, active=?, updated_at=? WHERE id=? AND entity_id=?`,
		b.BuyerName, b.RegistrationType, b.Province, b.NTN, b.CNIC, b.STRN,
		b.FullAddress, b.Active, b.UpdatedAt, b.ID, b.EntityID)
	if err != nil {
		return err
	}
	return affected(res)
}

// ListByEntity returns the tenant's buyers, newest first.
func (r *BuyerRepo) ListByEntity(ctx context.Context, entityID string) ([]model.Buyer, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+buyerCols+" FROM buyers WHERE entity_id=? ORDER BY created_at DESC", entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Buyer, 0)
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBuyer(row rowScanner) (*model.Buyer, error) {
	var b model.Buyer
	err := row.Scan(&b.ID, &b.EntityID, &b.BuyerName, &b.RegistrationType, &b.Province,
		&b.NTN, &b.CNIC, &b.STRN, &b.FullAddress, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	return &b, nil
}
