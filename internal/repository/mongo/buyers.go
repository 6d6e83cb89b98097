package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

type buyers struct{ s *Store }

func (r buyers) Create(ctx context.Context, b *model.Buyer) error {
	_, err := r.s.col(colBuyers).InsertOne(ctx, toBuyerModel(b))
	return err
}

func (r buyers) GetForEntity(ctx context.Context, entityID, id string) (*model.Buyer, error) {
	var m buyerModel
	if err := findOne(ctx, r.s.col(colBuyers), bson.M{"_id": id, "entity_id": entityID}, &m); err != nil {
		return nil, err
	}
	return fromBuyerModel(&m), nil
}

// FindActiveByName returns the oldest active buyer with that exact name.
func (r buyers) FindActiveByName(ctx context.Context, entityID, name string) (*model.Buyer, error) {
	var m buyerModel
	err := findOne(ctx, r.s.col(colBuyers),
		bson.M{"entity_id": entityID, "buyer_name": name, "active": true}, &m,
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	return fromBuyerModel(&m), nil
}

func (r buyers) Update(ctx context.Context, b *model.Buyer) error {
	return matched(r.s.col(colBuyers).UpdateOne(ctx,
		bson.M{"_id": b.ID, "entity_id": b.EntityID},
		bson.M{"$set": bson.M{
			"buyer_name":        b.BuyerName,
			"registration_type": b.RegistrationType,
			"province":          b.Province,
			"ntn":               b.NTN,
			"cnic":              b.CNIC,
			"strn":              b.STRN,
			"full_address":      b.FullAddress,
			"active":            b.Active,
			"updated_at":        b.UpdatedAt,
		}},
	))
}

func (r buyers) ListByEntity(ctx context.Context, entityID string) ([]model.Buyer, error) {
	cur, err := r.s.col(colBuyers).Find(ctx, bson.M{"entity_id": entityID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var ms []buyerModel
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	out := make([]model.Buyer, 0, len(ms))
	for i := range ms {
		out = append(out, *fromBuyerModel(&ms[i]))
	}
	return out, nil
}
