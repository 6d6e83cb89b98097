package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"   // optional .env file
	"github.com/sirupsen/logrus" // structured logging

	"github.com/iliyamo/invoicing-portal/internal/auth"
	"github.com/iliyamo/invoicing-portal/internal/bootstrap"
	"github.com/iliyamo/invoicing-portal/internal/config" // Internal config loader
	"github.com/iliyamo/invoicing-portal/internal/handler"
	applog "github.com/iliyamo/invoicing-portal/internal/log"
	"github.com/iliyamo/invoicing-portal/internal/queue"
	"github.com/iliyamo/invoicing-portal/internal/router" // Internal router setup
	"github.com/iliyamo/invoicing-portal/internal/service"
	"github.com/iliyamo/invoicing-portal/internal/tenant"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment wins
	cfg := config.Load()
	applog.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg, cfg.DBAutoMigrate)
	if err != nil {
		logrus.WithError(err).Fatal("open store")
	}
	defer store.Close()

	grants, err := tenant.ParseGrants(cfg.TenantGrants)
	if err != nil {
		logrus.WithError(err).Fatal("parse OPERATOR_TENANT_GRANTS")
	}

	// Events are best effort: without a broker the services publish to Nop.
	var events queue.Publisher = queue.Nop{}
	if cfg.EventsEnabled {
		events = queue.NewAMQPPublisher(cfg.AMQPURL)
	}
	if cfg.EventsConsumerEnabled {
		consumer := &queue.Consumer{URL: cfg.AMQPURL, LogDir: cfg.EventsLogDir}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("events consumer stopped")
			}
		}()
	}

	gate := auth.NewGate(store, auth.Config{Secret: cfg.JWTSecret, TTL: cfg.SessionTTL})
	e := router.New(router.Deps{
		Store:     store,
		Gate:      gate,
		Resolver:  tenant.NewDispatcher(store.Entities(), grants),
		Auth:      handler.NewAuthHandler(gate, service.NewAccountService(store, cfg.BcryptCost)),
		Entities:  handler.NewEntityHandler(service.NewEntityService(store, events, cfg.BcryptCost)),
		Buyers:    handler.NewBuyerHandler(service.NewBuyerService(store)),
		Invoices:  handler.NewInvoiceHandler(service.NewInvoiceService(store, events), service.NewBulkReconciler(store, events), cfg.UploadMaxBytes),
		Redis:     config.NewRedisClient(),
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown")
	}
}
