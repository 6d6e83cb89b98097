// Package mongo is a repository.Store backed by MongoDB.  Selected with
// STORE_DRIVER=mongo.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/invoicing-portal/internal/repository"
)

// Collection names.
const (
	colAccounts = "accounts"
	colSessions = "sessions"
	colEntities = "entities"
	colBuyers   = "buyers"
	colInvoices = "invoices"
)

// Compile-time interface check.
var _ repository.Store = (*Store)(nil)

// Store implements repository.Store on one database.  A Store created by
// WithTx carries the session context flag and joins the transaction.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	inTx   bool
}

// Connect dials uri and returns a store for database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return New(client, name), nil
}

// New wraps an existing client.
func New(client *mongo.Client, name string) *Store {
	return &Store{client: client, db: client.Database(name)}
}

func (s *Store) col(name string) *mongo.Collection { return s.db.Collection(name) }

func (s *Store) Accounts() repository.AccountStore { return accounts{s} }
func (s *Store) Sessions() repository.SessionStore { return sessions{s} }
func (s *Store) Entities() repository.EntityStore  { return entities{s} }
func (s *Store) Buyers() repository.BuyerStore     { return buyers{s} }
func (s *Store) Invoices() repository.InvoiceStore { return invoices{s} }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// WithTx runs fn in a multi-document transaction.  Transactions need a
// replica set or sharded cluster.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	tx := &Store{client: s.client, db: s.db, inTx: true}
	_, err = sess.WithTransaction(ctx, func(sc context.Context) (any, error) {
		return nil, fn(sc, tx)
	})
	return err
}

// Migrate creates the indexes every backend invariant depends on.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.col(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colSessions: {
			{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
			// At most one live session per account.
			{
				Keys: bson.D{{Key: "account_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("one_live_session").
					SetPartialFilterExpression(bson.M{"active": true}),
			},
		},
		colEntities: {
			{Keys: bson.D{{Key: "account_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colBuyers: {
			{Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "buyer_name", Value: 1}}},
		},
		colInvoices: {
			{Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// findOne decodes the first match into out, mapping no documents to
// repository.ErrNotFound.
func findOne(ctx context.Context, col *mongo.Collection, filter any, out any, opts ...options.Lister[options.FindOneOptions]) error {
	err := col.FindOne(ctx, filter, opts...).Decode(out)
	if isNoDocuments(err) {
		return repository.ErrNotFound
	}
	return err
}

// matched maps an update that matched nothing to repository.ErrNotFound.
func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}
