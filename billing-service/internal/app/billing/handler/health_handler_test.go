package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubRates struct {
	rate *entity.ExchangeRate
	err  error
}

func (s stubRates) Latest(context.Context, entity.RateType) (*entity.ExchangeRate, error) {
	return s.rate, s.err
}

func (s stubRates) GetByID(context.Context, uint) (*entity.ExchangeRate, error) {
	return s.rate, s.err
}

func newHealthHandler(t *testing.T, rates service.RateProvider) (*HealthCheckHandler, *miniredis.Miniredis) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := NewHealthCheckHandler(db, client, rates)
	h.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return h, mr
}

func freshRate() *entity.ExchangeRate {
	return &entity.ExchangeRate{
		ID:         1,
		Type:       entity.RateTypeOfficial,
		Value:      decimal.RequireFromString("36.50"),
		ObservedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestHealthCheckHandler_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h, _ := newHealthHandler(t, stubRates{rate: freshRate()})

		rec := httptest.NewRecorder()
		h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "healthy", resp.Checks["exchange_rates"])
	})

	t.Run("stale rate is a warning", func(t *testing.T) {
		rate := freshRate()
		rate.ObservedAt = rate.ObservedAt.Add(-72 * time.Hour)
		h, _ := newHealthHandler(t, stubRates{rate: rate})

		rec := httptest.NewRecorder()
		h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Checks["exchange_rates"], "warning")
	})

	t.Run("missing rate is a warning", func(t *testing.T) {
		h, _ := newHealthHandler(t, stubRates{err: service.ErrNoRateAvailable})

		rec := httptest.NewRecorder()
		h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("redis down", func(t *testing.T) {
		h, mr := newHealthHandler(t, stubRates{rate: freshRate()})
		mr.Close()

		rec := httptest.NewRecorder()
		h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "unhealthy")
	})
}

func TestHealthCheckHandler_Probes(t *testing.T) {
	h, _ := newHealthHandler(t, stubRates{rate: freshRate()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
}
