package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	commerceapp "github.com/AdX213/erli-sync/internal/application/commerce"
	appsync "github.com/AdX213/erli-sync/internal/application/sync"
	"github.com/AdX213/erli-sync/internal/domain/commerce"
	"github.com/AdX213/erli-sync/internal/infrastructure/config"
	"github.com/AdX213/erli-sync/internal/infrastructure/logger"
	"github.com/AdX213/erli-sync/internal/infrastructure/marketplace"
	"github.com/AdX213/erli-sync/internal/infrastructure/persistence"
	"github.com/AdX213/erli-sync/internal/infrastructure/scheduler"
	"github.com/AdX213/erli-sync/internal/interfaces/http/handler"
	"github.com/AdX213/erli-sync/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.NewFromSettings(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting service",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("failed to run database migrations", zap.Error(err))
	}

	client, err := marketplace.NewClient(&marketplace.Config{
		APIKey:            cfg.Marketplace.APIKey,
		Sandbox:           cfg.Marketplace.Sandbox,
		BaseURL:           cfg.Marketplace.BaseURL,
		TimeoutSeconds:    cfg.Marketplace.TimeoutSeconds,
		RequestsPerSecond: cfg.Marketplace.RequestsPerSecond,
	})
	if err != nil {
		log.Fatal("failed to create marketplace client", zap.Error(err))
	}
	productAPI := marketplace.NewProductAPI(client)
	orderAPI := marketplace.NewOrderAPI(client)

	// Repositories
	catalogRepo := persistence.NewGormCatalogRepository(db.DB)
	categoryMapRepo := persistence.NewGormCategoryMapRepository(db.DB)
	productLinkRepo := persistence.NewGormProductLinkRepository(db.DB)
	orderLinkRepo := persistence.NewGormOrderLinkRepository(db.DB)
	cursorRepo := persistence.NewGormCursorRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	addressRepo := persistence.NewGormAddressRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Services
	checkoutService := commerceapp.NewCheckoutService(cartRepo, orderRepo, log)

	mapper := appsync.NewProductMapper(categoryMapRepo, appsync.MapperConfig{
		ExternalIDPrefix: cfg.Sync.ExternalIDPrefix,
		DispatchDays:     cfg.Sync.DispatchDays,
		ShippingTag:      cfg.Sync.ShippingTag,
	})
	productEngine := appsync.NewProductEngine(
		catalogRepo,
		productLinkRepo,
		cursorRepo,
		productAPI,
		mapper,
		appsync.ProductEngineConfig{
			BatchSize:        cfg.Sync.BatchSize,
			ExternalIDPrefix: cfg.Sync.ExternalIDPrefix,
		},
		log,
	)
	orderEngine := appsync.NewOrderEngine(
		orderAPI,
		orderLinkRepo,
		productLinkRepo,
		customerRepo,
		addressRepo,
		checkoutService,
		commerce.DefaultShippingZone(),
		cursorRepo,
		appsync.OrderEngineConfig{
			InboxLimit:       cfg.Sync.InboxLimit,
			MaxBatches:       cfg.Sync.MaxInboxBatches,
			ExternalIDPrefix: cfg.Sync.ExternalIDPrefix,
			DefaultCountry:   cfg.Sync.DefaultCountry,
			CarrierID:        cfg.Sync.CarrierID,
			PaymentMethod:    cfg.Sync.PaymentMethod,
			States: appsync.StateMapping{
				Pending:   cfg.Sync.StatePending,
				Paid:      cfg.Sync.StatePaid,
				Cancelled: cfg.Sync.StateCancelled,
				Default:   cfg.Sync.StateDefault,
			},
		},
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sched *scheduler.SyncScheduler
	var jobStatus handler.JobStatusProvider
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewSyncScheduler(scheduler.Config{
			JobTimeout: cfg.Scheduler.JobTimeout,
		}, log)
		jobs := scheduler.NewJobs(productEngine, orderEngine, log)
		if err := sched.AddJob(scheduler.JobProductSync, cfg.Scheduler.ProductInterval, jobs.ProductSync); err != nil {
			log.Fatal("failed to register product sync job", zap.Error(err))
		}
		if err := sched.AddJob(scheduler.JobInboxSync, cfg.Scheduler.InboxInterval, jobs.InboxSync); err != nil {
			log.Fatal("failed to register inbox sync job", zap.Error(err))
		}
		if err := sched.Start(ctx); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
		jobStatus = sched
		log.Info("scheduler started",
			zap.Duration("product_interval", cfg.Scheduler.ProductInterval),
			zap.Duration("inbox_interval", cfg.Scheduler.InboxInterval),
		)
	}

	systemHandler := handler.NewSystemHandler(db)
	syncHandler := handler.NewSyncHandler(productEngine, orderEngine, jobStatus)

	engine := router.New(router.Config{
		Env:       cfg.App.Env,
		CronToken: cfg.HTTP.CronToken,
	}, log, systemHandler, syncHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Error("scheduler stop failed", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	log.Info("stopped")
}
