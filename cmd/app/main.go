package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/banner"
	"github.com/premiumrays/digital-goods-backend/internal/category"
	"github.com/premiumrays/digital-goods-backend/internal/config"
	"github.com/premiumrays/digital-goods-backend/internal/download"
	"github.com/premiumrays/digital-goods-backend/internal/event"
	"github.com/premiumrays/digital-goods-backend/internal/health"
	"github.com/premiumrays/digital-goods-backend/internal/infrastructure/database/postgres"
	"github.com/premiumrays/digital-goods-backend/internal/logger"
	"github.com/premiumrays/digital-goods-backend/internal/product"
	"github.com/premiumrays/digital-goods-backend/internal/purchase"
	"github.com/premiumrays/digital-goods-backend/internal/realtime"
	"github.com/premiumrays/digital-goods-backend/internal/server"
	"github.com/premiumrays/digital-goods-backend/internal/settings"
	"github.com/premiumrays/digital-goods-backend/internal/supervisor"
	"github.com/premiumrays/digital-goods-backend/internal/upload"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "digital-goods-backend",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, postgres.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	bus := event.NewBus(log)
	defer bus.Close()
	hub := realtime.NewHub(log)

	productService := product.NewService(product.NewPostgresRepository(db), bus)
	categoryService := category.NewService(category.NewPostgresRepository(db), bus)
	bannerService := banner.NewService(banner.NewPostgresRepository(db), bus)
	settingsService := settings.NewService(settings.NewPostgresRepository(db), bus, settings.Defaults{
		AppTitle:    cfg.Store.AppTitle,
		AppSubtitle: cfg.Store.AppSubtitle,
		Accent:      cfg.Store.Accent,
		Wallets:     cfg.Store.Wallets,
	})
	purchaseService := purchase.NewService(
		purchase.NewPostgresRepository(db),
		productService,
		settingsService,
		bus,
		purchase.Options{
			PayPalMeLink: cfg.PayPalMeLink,
			Policies:     purchase.Policies{PayPalInstantGrant: cfg.PayPalInstantGrant},
		},
	)
	if cfg.PayPalInstantGrant {
		log.Warn("paypal purchases are granted without payment verification",
			zap.String("policy", string(purchase.UnverifiedInstantGrant)))
	}

	store, err := newUploadStore(cfg, log)
	if err != nil {
		return err
	}

	app := server.NewApp(log, server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadMB:    cfg.MaxUploadMB,
		UploadDir:      cfg.UploadDir,
	},
		health.NewHandler(db, hub, version),
		product.NewHandler(productService),
		category.NewHandler(categoryService),
		banner.NewHandler(bannerService),
		settings.NewHandler(settingsService),
		purchase.NewHandler(purchaseService),
		download.NewHandler(
			purchaseService,
			download.NewSigner(cfg.DownloadSecret, cfg.DownloadTokenTTL),
			cfg.DownloadSecret,
			cfg.BaseURL,
			cfg.UploadDir,
		),
		upload.NewHandler(store, cfg.MaxUploadMB),
	)
	httpServer := server.NewHTTPServer(cfg.Addr, server.NewRouter(app, hub.Handler(cfg.AllowedOrigins), cfg.WSConnectsPerMinute))

	tree := supervisor.NewTree(log, supervisor.TreeConfig{ShutdownTimeout: cfg.ShutdownTimeout})
	tree.AddMessagingService(hub)
	tree.AddMessagingService(realtime.NewRelay(bus, hub, log))
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.ShutdownTimeout))

	log.Info("starting server",
		zap.String("addr", cfg.Addr),
		zap.String("version", version),
		zap.String("upload_store", fmt.Sprintf("%T", store)),
	)
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		log.Warn("services did not stop in time", zap.Int("count", len(report)))
	}
	log.Info("server stopped")
	return nil
}

func newUploadStore(cfg config.Config, log *zap.Logger) (upload.Store, error) {
	if cfg.CloudinaryURL != "" {
		remote, err := upload.NewCloudinaryStore(cfg.CloudinaryURL, "digital-goods")
		if err != nil {
			return nil, err
		}
		return upload.NewBreakerStore("cloudinary", remote, upload.BreakerSettings{}, log), nil
	}
	return upload.NewLocalStore(cfg.UploadDir, cfg.BaseURL)
}
