package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting of the billing service.
// Values come from the environment; a .env file in the working directory is
// loaded first when present.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Mongo    MongoConfig
	Loyverse LoyverseConfig
	Webhook  WebhookConfig
	Sync     SyncConfig
	Pricing  PricingConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        string
	HealthPort  string
	CORSOrigins []string
}

// DatabaseConfig - PostgreSQL holding products, rates, invoices and webhooks
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - latest-rate cache and webhook delivery dedup
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	RateTTL  time.Duration // TTL of cached latest rates
	DedupTTL time.Duration // how long a delivery id is remembered
}

// KafkaConfig - billing events topic; the same topic feeds the async
// invoice processor.
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// MongoConfig - webhook delivery audit log. Empty URI disables it.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Retention  time.Duration
}

// LoyverseConfig - remote POS catalog API
type LoyverseConfig struct {
	BaseURL    string
	Token      string
	MerchantID string
	StoreID    string // store whose inventory is mirrored; empty takes every store
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	Burst      int
	MaxRetries uint64
	RetryBase  time.Duration
}

type WebhookConfig struct {
	Secret   string
	TestMode bool // accept unsigned X-Test-Webhook deliveries
}

type SyncConfig struct {
	PageDelay      time.Duration // fixed pause between catalog pages
	PriceLockAfter time.Duration // invoices newer than this block remote price overwrite
	Schedule       string        // cron expression for the scheduled catalog sync
	RateWarm       string        // cron expression for reloading cached rates
	ApplyPrices    bool          // scheduled runs apply remote prices (subject to the lock)
	RunOnStart     bool
}

// PricingConfig - defaults for the sale price formula
type PricingConfig struct {
	DefaultMarkup   float64
	DefaultRateType string
	VATPercent      float64
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// AuthConfig - single operator account guarding the mutating API
type AuthConfig struct {
	Username     string
	PasswordHash string // bcrypt
}

type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8000"),
			HealthPort:  getEnv("HEALTH_PORT", "8081"),
			CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:   getEnv("POSTGRES_DB", "bodegaclick"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			RateTTL:  getEnvDuration("REDIS_RATE_TTL", 30*time.Minute),
			DedupTTL: getEnvDuration("REDIS_WEBHOOK_DEDUP_TTL", 48*time.Hour),
		},
		Kafka: KafkaConfig{
			Enabled:  getEnvBool("KAFKA_ENABLED", true),
			Brokers:  getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:    getEnv("KAFKA_TOPIC", "billing_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "billing-invoice-processor"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", ""),
			Database:   getEnv("MONGO_DB", "bodegaclick"),
			Collection: getEnv("MONGO_WEBHOOK_COLLECTION", "webhook_deliveries"),
			Retention:  getEnvDuration("MONGO_DELIVERY_RETENTION", 30*24*time.Hour),
		},
		Loyverse: LoyverseConfig{
			BaseURL:    getEnv("LOYVERSE_API_URL", "https://api.loyverse.com/v1.0"),
			Token:      getEnv("LOYVERSE_API_TOKEN", ""),
			MerchantID: getEnv("LOYVERSE_MERCHANT_ID", ""),
			StoreID:    getEnv("LOYVERSE_STORE_ID", ""),
			Timeout:    getEnvDuration("LOYVERSE_TIMEOUT", 30*time.Second),
			RateLimit:  getEnvFloat("LOYVERSE_RATE_LIMIT", 5),
			Burst:      getEnvInt("LOYVERSE_RATE_BURST", 1),
			MaxRetries: uint64(getEnvInt("LOYVERSE_MAX_RETRIES", 3)),
			RetryBase:  getEnvDuration("LOYVERSE_RETRY_BASE", 500*time.Millisecond),
		},
		Webhook: WebhookConfig{
			Secret:   getEnv("LOYVERSE_WEBHOOK_SECRET", ""),
			TestMode: getEnvBool("WEBHOOK_TEST_MODE", false),
		},
		Sync: SyncConfig{
			PageDelay:      getEnvDuration("SYNC_PAGE_DELAY", 500*time.Millisecond),
			PriceLockAfter: getEnvDuration("SYNC_PRICE_LOCK", 48*time.Hour),
			Schedule:       getEnv("CRON_CATALOG_SYNC", "0 0 */6 * * *"),
			RateWarm:       getEnv("CRON_RATE_WARM", "0 */15 * * * *"),
			ApplyPrices:    getEnvBool("SYNC_APPLY_PRICES", true),
			RunOnStart:     getEnvBool("SYNC_RUN_ON_START", false),
		},
		Pricing: PricingConfig{
			DefaultMarkup:   getEnvFloat("PRICING_DEFAULT_MARKUP", 30),
			DefaultRateType: getEnv("PRICING_DEFAULT_RATE_TYPE", "official"),
			VATPercent:      getEnvFloat("PRICING_VAT_PERCENT", 16),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "change-me"),
			TokenTTL: getEnvDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Auth: AuthConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Sync.PageDelay < 0 {
		return fmt.Errorf("SYNC_PAGE_DELAY must not be negative")
	}
	if c.Loyverse.RateLimit <= 0 {
		return fmt.Errorf("LOYVERSE_RATE_LIMIT must be positive")
	}
	if c.Pricing.DefaultMarkup < 0 {
		return fmt.Errorf("PRICING_DEFAULT_MARKUP must not be negative")
	}
	switch c.Pricing.DefaultRateType {
	case "official", "parallel":
	default:
		return fmt.Errorf("PRICING_DEFAULT_RATE_TYPE must be official or parallel, got %q", c.Pricing.DefaultRateType)
	}
	return nil
}

// DSN returns a libpq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the connection string in URL form, as pgxpool expects it.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("500ms", "48h").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
