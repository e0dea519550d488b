package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bodegaclick/billing-service/internal/app/billing/config"
	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/handler"
	"bodegaclick/billing-service/internal/app/billing/infrastructure"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/messaging"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/realtime"
	"bodegaclick/billing-service/internal/app/billing/pricing"
	"bodegaclick/billing-service/internal/app/billing/processor"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/billing-service/internal/app/billing/service"
	"bodegaclick/billing-service/internal/app/billing/util"
	"bodegaclick/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const serviceName = "billing-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)
	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Log.LogstashAddr).Msg("Logstash unavailable, logging to stdout only")
		}
	}
	logger.Info().Msg("Starting Billing Service...")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate schema")
	}
	logger.Info().Msg("Successfully connected to PostgreSQL")

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Successfully connected to Redis")

	deliveryLog, mongoClient := connectDeliveryLog(ctx, cfg.Mongo)
	if mongoClient != nil {
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoClient.Disconnect(disconnectCtx)
		}()
	}

	var events infrastructure.EventPublisher = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = messaging.NewEventPublisher(producer)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka producer initialized")
	}

	// === REPOSITORIES ===
	productRepo := repository.NewProductRepository(db)
	rateRepo := repository.NewExchangeRateRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)
	rateCache := repository.NewRateCache(redisClient, cfg.Redis.RateTTL)
	dedup := repository.NewDeliveryDeduplicator(redisClient, cfg.Redis.DedupTTL)

	if cfg.Loyverse.Token == "" {
		logger.Warn().Msg("LOYVERSE_API_TOKEN is empty, remote calls will be rejected")
	}
	catalogClient := loyverse.NewClient(cfg.Loyverse.BaseURL, cfg.Loyverse.Token, loyverse.Options{
		Timeout:    cfg.Loyverse.Timeout,
		RateLimit:  cfg.Loyverse.RateLimit,
		Burst:      cfg.Loyverse.Burst,
		MaxRetries: cfg.Loyverse.MaxRetries,
		RetryBase:  cfg.Loyverse.RetryBase,
	})

	hub := realtime.NewHub(cfg.Server.CORSOrigins)

	// === SERVICES ===
	defaults := pricingDefaults(cfg.Pricing)
	jwtManager := util.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)

	rateSvc := service.NewExchangeRateService(rateRepo, rateCache)
	productSvc := service.NewProductService(productRepo)
	pricingSvc := service.NewPricingService(productRepo, rateSvc, pricing.NewCalculator(defaults))
	pushSvc := service.NewPriceSyncService(productRepo, catalogClient)
	syncSvc := service.NewCatalogSyncService(productRepo, invoiceRepo, catalogClient, events, service.SyncOptions{
		PageDelay:      cfg.Sync.PageDelay,
		PriceLockAfter: cfg.Sync.PriceLockAfter,
	}, defaults)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, productRepo, rateSvc, pushSvc, events, defaults)
	webhookSvc := service.NewWebhookService(webhookRepo, productRepo, catalogClient, syncSvc, dedup, deliveryLog, hub, events, service.WebhookOptions{
		Secret:     cfg.Webhook.Secret,
		TestMode:   cfg.Webhook.TestMode,
		MerchantID: cfg.Loyverse.MerchantID,
		StoreID:    cfg.Loyverse.StoreID,
	})
	authSvc := service.NewAuthService(cfg.Auth.Username, cfg.Auth.PasswordHash, jwtManager)
	if cfg.Webhook.Secret == "" && !cfg.Webhook.TestMode {
		logger.Warn().Msg("LOYVERSE_WEBHOOK_SECRET is empty, every signed delivery will be rejected")
	}
	logger.Info().Msg("Services initialized")

	// === BACKGROUND PROCESSING ===
	cronScheduler := processor.NewCronScheduler(syncSvc, rateSvc)
	if err := cronScheduler.Start(ctx, processor.ScheduleConfig{
		CatalogSync: cfg.Sync.Schedule,
		RateWarm:    cfg.Sync.RateWarm,
		ApplyPrices: cfg.Sync.ApplyPrices,
		RunOnStart:  cfg.Sync.RunOnStart,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}

	var kafkaConsumer *processor.KafkaConsumer
	if cfg.Kafka.Enabled {
		kafkaConsumer = processor.NewKafkaConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.Topic,
			cfg.Kafka.GroupID,
			cfg.Kafka.MinBytes,
			cfg.Kafka.MaxBytes,
			invoiceSvc,
		)
		kafkaConsumer.Start(ctx)
	}

	// === HTTP ===
	healthHandler := handler.NewHealthCheckHandler(db, redisClient, rateSvc)
	billingHandler := handler.NewBillingHandler(handler.Services{
		Products: productSvc,
		Sync:     syncSvc,
		Push:     pushSvc,
		Pricing:  pricingSvc,
		Rates:    rateSvc,
		Invoices: invoiceSvc,
		Webhooks: webhookSvc,
		Auth:     authSvc,
	})
	router := handler.SetupRoutes(billingHandler, handler.NewAuthMiddleware(jwtManager), hub, healthHandler, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a full catalog sync runs inside the request
		IdleTimeout:  60 * time.Second,
	}

	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())
	healthServer := &http.Server{
		Addr:    ":" + cfg.Server.HealthPort,
		Handler: mux,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("Billing API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()
	go func() {
		logger.Info().Str("port", cfg.Server.HealthPort).Msg("Health and metrics listening")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Health server error")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Billing Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	healthServer.Shutdown(shutdownCtx)
	hub.Close(shutdownCtx)

	cronScheduler.Stop()
	stop()
	if kafkaConsumer != nil {
		kafkaConsumer.Stop()
	}

	logger.Info().Msg("Billing Service stopped gracefully")
}

func pricingDefaults(cfg config.PricingConfig) pricing.Config {
	return pricing.Config{
		DefaultMarkup:   decimal.NewFromFloat(cfg.DefaultMarkup),
		DefaultRateType: entity.RateType(cfg.DefaultRateType),
		VATPercent:      decimal.NewFromFloat(cfg.VATPercent),
	}
}

// connectDB opens PostgreSQL through GORM, retrying while the database
// container starts.
func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(10)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	for i := 0; i < 10; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		logger.Warn().Int("attempt", i+1).Msg("Failed to connect to Redis")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts")
}

// connectDeliveryLog returns the MongoDB-backed audit log, or a no-op log
// when MONGO_URI is unset or the server cannot be reached.
func connectDeliveryLog(ctx context.Context, cfg config.MongoConfig) (repository.DeliveryLog, *mongo.Client) {
	if cfg.URI == "" {
		logger.Info().Msg("MONGO_URI not set, webhook delivery audit disabled")
		return repository.NoopDeliveryLog{}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err == nil {
		err = client.Ping(connectCtx, nil)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("MongoDB unavailable, webhook delivery audit disabled")
		if client != nil {
			client.Disconnect(context.Background())
		}
		return repository.NoopDeliveryLog{}, nil
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	if err := repository.EnsureDeliveryIndexes(connectCtx, collection, cfg.Retention); err != nil {
		logger.Warn().Err(err).Msg("Failed to create delivery indexes")
	}
	logger.Info().Str("collection", cfg.Collection).Msg("Webhook delivery audit enabled")
	return repository.NewDeliveryLog(collection), client
}
