// Package bootstrap opens the backing store selected by configuration.
// Both binaries share it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/invoicing-portal/internal/config"
	"github.com/iliyamo/invoicing-portal/internal/database"
	"github.com/iliyamo/invoicing-portal/internal/repository"
	"github.com/iliyamo/invoicing-portal/internal/repository/memory"
	"github.com/iliyamo/invoicing-portal/internal/repository/mongo"
)

// OpenStore connects to the configured backend.  With migrate set the
// schema (MySQL) or the indexes (MongoDB) are brought up to date first.
func OpenStore(ctx context.Context, cfg config.Config, migrate bool) (repository.Store, error) {
	log := logrus.WithField("driver", cfg.StoreDriver)
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.Migrate(db); err != nil {
				_ = db.Close()
				return nil, err
			}
			log.Info("migrations applied")
		}
		return repository.NewSQLStore(db), nil

	case config.DriverMongo:
		st, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := st.Migrate(ctx); err != nil {
				_ = st.Close()
				return nil, err
			}
			log.Info("indexes ensured")
		}
		return st, nil

	case config.DriverMemory:
		log.Warn("using the in-memory store; data is lost on exit")
		st, err := memory.New()
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
