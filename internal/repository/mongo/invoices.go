package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type invoices struct{ s *Store }

func (r invoices) Create(ctx context.Context, inv *model.Invoice) error {
	m, err := toInvoiceModel(inv)
	if err != nil {
		return err
	}
	_, err = r.s.col(colInvoices).InsertOne(ctx, m)
	return err
}

func (r invoices) GetForEntity(ctx context.Context, entityID, id string) (*model.Invoice, error) {
	var m invoiceModel
	if err := findOne(ctx, r.s.col(colInvoices), bson.M{"_id": id, "entity_id": entityID}, &m); err != nil {
		return nil, err
	}
	return fromInvoiceModel(&m)
}

// Replace only matches unsent invoices, so a concurrent MarkSent wins.
func (r invoices) Replace(ctx context.Context, inv *model.Invoice) error {
	m, err := toInvoiceModel(inv)
	if err != nil {
		return err
	}
	return matched(r.s.col(colInvoices).UpdateOne(ctx,
		bson.M{"_id": inv.ID, "entity_id": inv.EntityID, "sent": false},
		bson.M{"$set": bson.M{
			"buyer_id":       m.BuyerID,
			"invoice_number": m.InvoiceNumber,
			"invoice_date":   m.InvoiceDate,
			"invoice_type":   m.InvoiceType,
			"invoice_ref_no": m.InvoiceRefNo,
			"salesman":       m.Salesman,
			"items":          m.Items,
			"total_amount":   m.TotalAmount,
			"updated_at":     m.UpdatedAt,
		}},
	))
}

func (r invoices) DeleteUnsent(ctx context.Context, entityID, id string) error {
	res, err := r.s.col(colInvoices).DeleteOne(ctx, bson.M{"_id": id, "entity_id": entityID, "sent": false})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r invoices) ListByEntity(ctx context.Context, entityID string) ([]model.Invoice, error) {
	cur, err := r.s.col(colInvoices).Find(ctx, bson.M{"entity_id": entityID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var ms []invoiceModel
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	out := make([]model.Invoice, 0, len(ms))
	for i := range ms {
		inv, err := fromInvoiceModel(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, nil
}

// MarkSent keeps the first sent_at: the filter only matches unsent
// invoices, and a miss is resolved by checking ownership.
func (r invoices) MarkSent(ctx context.Context, entityID, id string, at time.Time) error {
	res, err := r.s.col(colInvoices).UpdateOne(ctx,
		bson.M{"_id": id, "entity_id": entityID, "sent": false},
		bson.M{"$set": bson.M{"sent": true, "sent_at": at, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	_, err = r.GetForEntity(ctx, entityID, id)
	return err
}
