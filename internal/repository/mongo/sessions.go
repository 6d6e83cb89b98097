package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

type sessions struct{ s *Store }

// CreateActive retires the account's expired live sessions, then inserts
// the new one.  The one_live_session partial index rejects the insert
// while any live session remains, which closes the race between two
// concurrent logins.
//
// The entity is read after the insert.  entities.SetActive flips the flag
// before ending sessions, so either that sweep sees this session or this
// read sees the entity inactive and ends the session itself.
func (r sessions) CreateActive(ctx context.Context, sess *model.Session) error {
	col := r.s.col(colSessions)
	_, err := col.UpdateMany(ctx,
		bson.M{
			"account_id": sess.AccountID,
			"active":     true,
			"expires_at": bson.M{"$lte": sess.LoggedInAt},
		},
		bson.M{"$set": bson.M{"active": false, "logged_out_at": sess.LoggedInAt}},
	)
	if err != nil {
		return err
	}
	sess.Active = true
	_, err = col.InsertOne(ctx, toSessionModel(sess))
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrActiveSessionExists
	}
	if err != nil {
		return err
	}

	var e entityModel
	err = findOne(ctx, r.s.col(colEntities), bson.M{"account_id": sess.AccountID}, &e,
		options.FindOne().SetProjection(bson.M{"active": 1}))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err == nil && e.Active:
		return nil
	}
	// Entity gone inactive (or unreadable): the new session must not stay live.
	if _, uerr := col.UpdateOne(ctx,
		bson.M{"_id": sess.ID, "active": true},
		bson.M{"$set": bson.M{"active": false, "logged_out_at": sess.LoggedInAt}},
	); uerr != nil {
		logrus.WithError(uerr).WithField("session_id", sess.ID).Error("mongo: could not end session of inactive entity")
		return uerr
	}
	sess.Active = false
	if err != nil {
		return err
	}
	return repository.ErrEntityInactive
}

func (r sessions) GetActiveByToken(ctx context.Context, tokenHash string) (*model.Session, error) {
	var m sessionModel
	err := findOne(ctx, r.s.col(colSessions), bson.M{"token_hash": tokenHash, "active": true}, &m)
	if err != nil {
		return nil, err
	}
	return fromSessionModel(&m), nil
}

func (r sessions) TerminateByToken(ctx context.Context, tokenHash string, at time.Time) error {
	return matched(r.s.col(colSessions).UpdateOne(ctx,
		bson.M{"token_hash": tokenHash, "active": true},
		bson.M{"$set": bson.M{"active": false, "logged_out_at": at}},
	))
}

// terminateAll ends every live session of accountID.
func terminateAll(ctx context.Context, col *mongo.Collection, accountID string, at time.Time) error {
	_, err := col.UpdateMany(ctx,
		bson.M{"account_id": accountID, "active": true},
		bson.M{"$set": bson.M{"active": false, "logged_out_at": at}},
	)
	return err
}
