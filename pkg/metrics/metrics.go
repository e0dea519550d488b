package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP
// =============================================================================

// HttpRequestsTotal labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database
// =============================================================================

var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

var DbConnectionsOpen = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_connections_open",
		Help: "Number of open database connections",
	},
	[]string{"service", "state"}, // state: idle, in_use
)

var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis
// =============================================================================

var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Remote catalog API
// =============================================================================

// RemoteRequestsTotal labels: endpoint, outcome (ok, error, retry)
var RemoteRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "remote_api_requests_total",
		Help: "Total number of calls to the remote POS catalog API",
	},
	[]string{"endpoint", "outcome"},
)

var RemoteRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "remote_api_request_duration_seconds",
		Help:    "Duration of remote POS catalog API calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"endpoint"},
)

// =============================================================================
// Billing
// =============================================================================

// CatalogSyncRuns labels: status (success, partial, failed)
var CatalogSyncRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_catalog_sync_runs_total",
		Help: "Total number of catalog sync runs",
	},
	[]string{"status"},
)

// CatalogSyncProducts labels: outcome (created, updated, unchanged, prices_unchanged, invalid)
var CatalogSyncProducts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_catalog_sync_products_total",
		Help: "Products touched by catalog sync, by outcome",
	},
	[]string{"outcome"},
)

var CatalogSyncDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "billing_catalog_sync_duration_seconds",
		Help:    "Duration of a full catalog sync run",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	},
)

// PricePushes labels: status (updated, failed, skipped)
var PricePushes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_price_pushes_total",
		Help: "Total number of price pushes to the remote catalog",
	},
	[]string{"status"},
)

var InvoicesCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_invoices_created_total",
		Help: "Total number of invoices created",
	},
	[]string{"currency"},
)

// InvoicesProcessed labels: status (success, partial)
var InvoicesProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_invoices_processed_total",
		Help: "Total number of invoices processed",
	},
	[]string{"status"},
)

// WebhookDeliveries labels: type, outcome (processed, rejected, duplicate, ignored, failed)
var WebhookDeliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_webhook_deliveries_total",
		Help: "Inbound webhook deliveries by type and outcome",
	},
	[]string{"type", "outcome"},
)

var ExchangeRatesRecorded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_exchange_rates_recorded_total",
		Help: "Exchange rate observations recorded",
	},
	[]string{"type"},
)

var WebsocketClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "billing_websocket_clients",
		Help: "Currently connected notification clients",
	},
)
