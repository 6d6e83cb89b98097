package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/taxcalc"
)

// InvoiceRepo stores invoices.  Items are embedded as a JSON document in
// the items column, which keeps every digit.  total_amount is a DECIMAL so
// lists can be summed in SQL, but its scale is fixed; the total handed back
// to callers is always re-summed from the items.
type InvoiceRepo struct{ DB dbtx }

func NewInvoiceRepo(db dbtx) *InvoiceRepo { return &InvoiceRepo{DB: db} }

const invoiceCols = "id,entity_id,buyer_id,invoice_number,invoice_date,invoice_type,invoice_ref_no,salesman,items,total_amount,sent,sent_at,created_at,updated_at"

// Create inserts an invoice row.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO invoices ("+invoiceCols+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		inv.ID, inv.EntityID, inv.BuyerID, inv.InvoiceNumber, inv.InvoiceDate, inv.InvoiceType,
		inv.InvoiceRefNo, inv.Salesman, items, inv.TotalAmount, inv.Sent, inv.SentAt,
		inv.CreatedAt, inv.UpdatedAt)
	return err
}

// GetForEntity fetches an invoice only if it belongs to entityID.
func (r *InvoiceRepo) GetForEntity(ctx context.Context, entityID, id string) (*model.Invoice, error) {
	return scanInvoice(r.DB.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE id=? AND entity_id=? LIMIT 1", id, entityID))
}

// Replace rewrites an unsent invoice.  The sent=0 guard sits in the WHERE
// clause so a concurrent MarkSent wins.
func (r *InvoiceRepo) Replace(ctx context.Context, inv *model.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE invoices SET buyer_id=?, invoice_number=?, invoice_date=?, invoice_type=?,
		 invoice_ref_no=?, salesman=?, items=?, total_amount=?, updated_at=?
		 WHERE id=? AND entity_id=? AND sent=0`,
		inv.BuyerID, inv.InvoiceNumber, inv.InvoiceDate, inv.InvoiceType,
		inv.InvoiceRefNo, inv.Salesman, items, inv.TotalAmount, inv.UpdatedAt,
		inv.ID, inv.EntityID)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteUnsent removes an unsent invoice of the given entity.
func (r *InvoiceRepo) DeleteUnsent(ctx context.Context, entityID, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM invoices WHERE id=? AND entity_id=? AND sent=0", id, entityID)
	if err != nil {
		return err
	}
	return affected(res)
}

// ListByEntity returns the tenant's invoices, newest first.
func (r *InvoiceRepo) ListByEntity(ctx context.Context, entityID string) ([]model.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE entity_id=? ORDER BY created_at DESC", entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// MarkSent sets sent=1.  COALESCE keeps the first sent_at.
func (r *InvoiceRepo) MarkSent(ctx context.Context, entityID, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE invoices SET sent=1, sent_at=COALESCE(sent_at, ?), updated_at=? WHERE id=? AND entity_id=?",
		at, at, id, entityID)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var (
		inv    model.Invoice
		items  []byte
		sentAt sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.EntityID, &inv.BuyerID, &inv.InvoiceNumber, &inv.InvoiceDate,
		&inv.InvoiceType, &inv.InvoiceRefNo, &inv.Salesman, &items, &inv.TotalAmount,
		&inv.Sent, &sentAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	if sentAt.Valid {
		inv.SentAt = &sentAt.Time
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, err
	}
	inv.TotalAmount = taxcalc.Total(inv.Items)
	return &inv, nil
}
