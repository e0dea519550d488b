package main

import (
	"context"
	"fmt"
	"os"

	"bodegaclick/billing-service/internal/app/billing/config"
	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/messaging"
	"bodegaclick/billing-service/internal/app/billing/pricing"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/billing-service/internal/app/billing/service"
	"bodegaclick/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// app holds the services a command may call. Events are not published from
// the CLI.
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *redis.Client

	products *service.ProductService
	rates    *service.ExchangeRateService
	pricing  *service.PricingService
	push     *service.PriceSyncService
	sync     *service.CatalogSyncService
	invoices *service.InvoiceService
	webhooks *service.WebhookService
}

// discardNotifier drops notifications; nothing listens to a CLI process.
type discardNotifier struct{}

func (discardNotifier) Broadcast(entity.Notification) {}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitWithWriter("billingctl", cfg.Log.Level, os.Stderr)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	defaults := pricing.Config{
		DefaultMarkup:   decimal.NewFromFloat(cfg.Pricing.DefaultMarkup),
		DefaultRateType: entity.RateType(cfg.Pricing.DefaultRateType),
		VATPercent:      decimal.NewFromFloat(cfg.Pricing.VATPercent),
	}
	events := messaging.NoopPublisher{}

	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	client := loyverse.NewClient(cfg.Loyverse.BaseURL, cfg.Loyverse.Token, loyverse.Options{
		Timeout:    cfg.Loyverse.Timeout,
		RateLimit:  cfg.Loyverse.RateLimit,
		Burst:      cfg.Loyverse.Burst,
		MaxRetries: cfg.Loyverse.MaxRetries,
		RetryBase:  cfg.Loyverse.RetryBase,
	})

	a := &app{cfg: cfg, db: db, redis: redisClient}
	a.products = service.NewProductService(productRepo)
	a.rates = service.NewExchangeRateService(
		repository.NewExchangeRateRepository(db),
		repository.NewRateCache(redisClient, cfg.Redis.RateTTL),
	)
	a.pricing = service.NewPricingService(productRepo, a.rates, pricing.NewCalculator(defaults))
	a.push = service.NewPriceSyncService(productRepo, client)
	a.sync = service.NewCatalogSyncService(productRepo, invoiceRepo, client, events, service.SyncOptions{
		PageDelay:      cfg.Sync.PageDelay,
		PriceLockAfter: cfg.Sync.PriceLockAfter,
	}, defaults)
	a.invoices = service.NewInvoiceService(invoiceRepo, productRepo, a.rates, a.push, events, defaults)
	a.webhooks = service.NewWebhookService(
		repository.NewWebhookRepository(db),
		productRepo,
		client,
		a.sync,
		repository.NewDeliveryDeduplicator(redisClient, cfg.Redis.DedupTTL),
		repository.NoopDeliveryLog{},
		discardNotifier{},
		events,
		service.WebhookOptions{
			Secret:     cfg.Webhook.Secret,
			TestMode:   cfg.Webhook.TestMode,
			MerchantID: cfg.Loyverse.MerchantID,
			StoreID:    cfg.Loyverse.StoreID,
		},
	)
	return a, nil
}

func (a *app) Close() {
	a.redis.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
