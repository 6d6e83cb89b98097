package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type accounts struct{ s *Store }

func (r accounts) Create(ctx context.Context, a *model.Account) error {
	m, err := toAccountModel(a)
	if err != nil {
		return err
	}
	_, err = r.s.col(colAccounts).InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r accounts) get(ctx context.Context, filter bson.M) (*model.Account, error) {
	var m accountModel
	if err := findOne(ctx, r.s.col(colAccounts), filter, &m); err != nil {
		return nil, err
	}
	return fromAccountModel(&m)
}

func (r accounts) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.get(ctx, bson.M{"_id": id})
}

func (r accounts) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.get(ctx, bson.M{"username": username})
}

func (r accounts) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	return matched(r.s.col(colAccounts).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": hash, "updated_at": at}},
	))
}

func (r accounts) UpdateSettings(ctx context.Context, id string, settings map[string]any, at time.Time) error {
	m, err := toAccountModel(&model.Account{Settings: settings})
	if err != nil {
		return err
	}
	return matched(r.s.col(colAccounts).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"settings": m.Settings, "updated_at": at}},
	))
}
