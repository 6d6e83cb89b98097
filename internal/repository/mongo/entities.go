package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type entities struct{ s *Store }

// CreateWithAccount inserts the account and then the entity.  Outside a
// transaction a failed entity insert deletes the account again.
func (r entities) CreateWithAccount(ctx context.Context, e *model.Entity, a *model.Account) error {
	if err := (accounts{r.s}).Create(ctx, a); err != nil {
		return err
	}
	_, err := r.s.col(colEntities).InsertOne(ctx, toEntityModel(e))
	if err == nil {
		return nil
	}
	if !r.s.inTx {
		if _, derr := r.s.col(colAccounts).DeleteOne(ctx, bson.M{"_id": a.ID}); derr != nil {
			logrus.WithError(derr).WithField("account_id", a.ID).Error("mongo: orphaned account after failed entity insert")
		}
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r entities) get(ctx context.Context, filter bson.M) (*model.Entity, error) {
	var m entityModel
	if err := findOne(ctx, r.s.col(colEntities), filter, &m); err != nil {
		return nil, err
	}
	return fromEntityModel(&m), nil
}

func (r entities) GetByID(ctx context.Context, id string) (*model.Entity, error) {
	return r.get(ctx, bson.M{"_id": id})
}

func (r entities) GetByAccountID(ctx context.Context, accountID string) (*model.Entity, error) {
	return r.get(ctx, bson.M{"account_id": accountID})
}

func (r entities) Update(ctx context.Context, e *model.Entity) error {
	return matched(r.s.col(colEntities).UpdateOne(ctx,
		bson.M{"_id": e.ID},
		bson.M{"$set": bson.M{
			"image":             e.Image,
			"business_name":     e.BusinessName,
			"registration_type": e.RegistrationType,
			"province":          e.Province,
			"ntn":               e.NTN,
			"cnic":              e.CNIC,
			"strn":              e.STRN,
			"full_address":      e.FullAddress,
			"updated_at":        e.UpdatedAt,
		}},
	))
}

// SetActive flips the flag.  On deactivation the account's live sessions
// are ended with retries; if that keeps failing the flag is restored and
// the error returned, so a caller never sees a deactivated entity whose
// client is still logged in.
func (r entities) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	var prev entityModel
	err := r.s.col(colEntities).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": active, "updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&prev)
	if isNoDocuments(err) {
		return repository.ErrNotFound
	}
	if err != nil || active {
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 5 * time.Second
	cascade := func() error {
		return terminateAll(ctx, r.s.col(colSessions), prev.AccountID, at)
	}
	if err := backoff.Retry(cascade, backoff.WithContext(bo, ctx)); err != nil {
		if !r.s.inTx {
			_, rerr := r.s.col(colEntities).UpdateOne(ctx,
				bson.M{"_id": id},
				bson.M{"$set": bson.M{"active": prev.Active, "updated_at": prev.UpdatedAt}},
			)
			if rerr != nil {
				logrus.WithError(rerr).WithField("entity_id", id).Error("mongo: could not restore entity flag")
			}
		}
		return fmt.Errorf("end sessions of entity %s: %w", id, err)
	}
	return nil
}

func (r entities) List(ctx context.Context) ([]model.Entity, error) {
	cur, err := r.s.col(colEntities).Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var ms []entityModel
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	out := make([]model.Entity, 0, len(ms))
	for i := range ms {
		out = append(out, *fromEntityModel(&ms[i]))
	}
	return out, nil
}
