package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/service"
	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const staleRateAge = 24 * time.Hour

type HealthCheckHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	rates       service.RateProvider
	now         func() time.Time
}

func NewHealthCheckHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	rates service.RateProvider,
) *HealthCheckHandler {
	return &HealthCheckHandler{
		db:          db,
		redisClient: redisClient,
		rates:       rates,
		now:         time.Now,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	overallStatus := "healthy"

	if err := h.checkDatabase(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	if err := h.checkRedis(ctx); err != nil {
		checks["redis"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["redis"] = "healthy"
	}

	// a missing or stale rate degrades pricing but not the service
	if err := h.checkExchangeRates(ctx); err != nil {
		checks["exchange_rates"] = "warning: " + err.Error()
	} else {
		checks["exchange_rates"] = "healthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: h.now(),
	}

	w.Header().Set("Content-Type", "application/json")

	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.checkDatabase(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}

	if err := h.checkRedis(ctx); err != nil {
		http.Error(w, "redis not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

func (h *HealthCheckHandler) checkDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}

	stats := sqlDB.Stats()
	metrics.DbConnectionsOpen.WithLabelValues(serviceName, "idle").Set(float64(stats.Idle))
	metrics.DbConnectionsOpen.WithLabelValues(serviceName, "in_use").Set(float64(stats.InUse))
	return nil
}

func (h *HealthCheckHandler) checkRedis(ctx context.Context) error {
	return h.redisClient.Ping(ctx).Err()
}

func (h *HealthCheckHandler) checkExchangeRates(ctx context.Context) error {
	rate, err := h.rates.Latest(ctx, entity.RateTypeOfficial)
	if err != nil {
		return err
	}

	age := h.now().Sub(rate.ObservedAt)
	if age > staleRateAge {
		logger.Warn().
			Dur("age", age).
			Str("rate_type", string(rate.Type)).
			Msg("Exchange rate is outdated")
		return fmt.Errorf("%s rate is %s old", rate.Type, age.Round(time.Minute))
	}

	return nil
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/readiness", h.Readiness)
	mux.HandleFunc("/health/liveness", h.Liveness)
}
