package repository

import (
	"context"
	"testing"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	cache     RateCache
	dedup     DeliveryDeduplicator
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{Addr: s.miniRedis.Addr()})
	s.cache = NewRateCache(s.client, 30*time.Minute)
	s.dedup = NewDeliveryDeduplicator(s.client, 48*time.Hour)
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *RedisRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===================== RateCache Tests =====================

func (s *RedisRepositoryTestSuite) TestRateCache_SetGet() {
	ctx := context.Background()
	rate := &entity.ExchangeRate{ID: 3, Type: entity.RateTypeOfficial, Value: decimal.RequireFromString("40.25"), ObservedAt: time.Now().UTC()}

	s.Require().NoError(s.cache.Set(ctx, rate))

	got, err := s.cache.Get(ctx, entity.RateTypeOfficial)
	s.Require().NoError(err)
	s.Equal(uint(3), got.ID)
	s.True(got.Value.Equal(rate.Value))

	s.Equal(30*time.Minute, s.miniRedis.TTL("billing:rate:latest:official"))
}

func (s *RedisRepositoryTestSuite) TestRateCache_MissAndInvalidate() {
	ctx := context.Background()

	_, err := s.cache.Get(ctx, entity.RateTypeParallel)
	s.ErrorIs(err, ErrCacheMiss)

	s.Require().NoError(s.cache.Set(ctx, &entity.ExchangeRate{Type: entity.RateTypeParallel, Value: decimal.NewFromInt(45)}))
	s.Require().NoError(s.cache.Invalidate(ctx, entity.RateTypeParallel))

	_, err = s.cache.Get(ctx, entity.RateTypeParallel)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *RedisRepositoryTestSuite) TestRateCache_Expires() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, &entity.ExchangeRate{Type: entity.RateTypeOfficial, Value: decimal.NewFromInt(40)}))

	s.miniRedis.FastForward(31 * time.Minute)

	_, err := s.cache.Get(ctx, entity.RateTypeOfficial)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *RedisRepositoryTestSuite) TestRateCache_CorruptValue() {
	ctx := context.Background()
	s.Require().NoError(s.miniRedis.Set("billing:rate:latest:official", "not-json"))

	_, err := s.cache.Get(ctx, entity.RateTypeOfficial)
	s.Error(err)
	s.NotErrorIs(err, ErrCacheMiss)
}

// ===================== DeliveryDeduplicator Tests =====================

func (s *RedisRepositoryTestSuite) TestMarkSeen() {
	ctx := context.Background()

	first, err := s.dedup.MarkSeen(ctx, "abc")
	s.Require().NoError(err)
	s.True(first)

	again, err := s.dedup.MarkSeen(ctx, "abc")
	s.Require().NoError(err)
	s.False(again)

	s.miniRedis.FastForward(49 * time.Hour)

	afterTTL, err := s.dedup.MarkSeen(ctx, "abc")
	s.Require().NoError(err)
	s.True(afterTTL)
}

func (s *RedisRepositoryTestSuite) TestForget() {
	ctx := context.Background()

	_, err := s.dedup.MarkSeen(ctx, "retry-me")
	s.Require().NoError(err)

	s.Require().NoError(s.dedup.Forget(ctx, "retry-me"))

	first, err := s.dedup.MarkSeen(ctx, "retry-me")
	s.Require().NoError(err)
	s.True(first)
}

func (s *RedisRepositoryTestSuite) TestRedisDown() {
	ctx := context.Background()
	broken := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer broken.Close()

	_, err := NewRateCache(broken, time.Minute).Get(ctx, entity.RateTypeOfficial)
	s.Error(err)
	s.NotErrorIs(err, ErrCacheMiss)

	_, err = NewDeliveryDeduplicator(broken, time.Minute).MarkSeen(ctx, "x")
	s.Error(err)
}
