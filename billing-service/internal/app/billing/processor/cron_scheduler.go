package processor

import (
	"context"
	"fmt"

	"bodegaclick/billing-service/internal/app/billing/service"
	"bodegaclick/pkg/logger"

	"github.com/robfig/cron/v3"
)

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

// ScheduleConfig - six-field cron expressions (with seconds).
type ScheduleConfig struct {
	CatalogSync string
	RateWarm    string
	ApplyPrices bool
	RunOnStart  bool
}

type CronScheduler struct {
	cron   *cron.Cron
	syncer service.CatalogSyncer
	rates  service.RateCacheWarmer
}

func NewCronScheduler(syncer service.CatalogSyncer, rates service.RateCacheWarmer) *CronScheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	return &CronScheduler{
		cron:   c,
		syncer: syncer,
		rates:  rates,
	}
}

func (s *CronScheduler) Start(ctx context.Context, cfg ScheduleConfig) error {
	logger.Info().
		Str("catalog_sync", cfg.CatalogSync).
		Str("rate_warm", cfg.RateWarm).
		Msg("Starting cron scheduler")

	if cfg.CatalogSync != "" {
		if _, err := s.cron.AddFunc(cfg.CatalogSync, func() { s.runCatalogSync(ctx, cfg.ApplyPrices) }); err != nil {
			return fmt.Errorf("catalog sync schedule %q: %w", cfg.CatalogSync, err)
		}
	}

	if cfg.RateWarm != "" {
		if _, err := s.cron.AddFunc(cfg.RateWarm, func() { s.warmRates(ctx) }); err != nil {
			return fmt.Errorf("rate warm schedule %q: %w", cfg.RateWarm, err)
		}
	}

	s.cron.Start()
	logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Cron scheduler started")

	s.warmRates(ctx)
	if cfg.RunOnStart {
		go s.runCatalogSync(ctx, cfg.ApplyPrices)
	}

	return nil
}

func (s *CronScheduler) runCatalogSync(ctx context.Context, applyPrices bool) {
	logger.Info().Bool("apply_prices", applyPrices).Msg("Cron job triggered: catalog sync")

	report, err := s.syncer.Run(ctx, applyPrices)
	if err != nil {
		logger.Error().Err(err).Msg("Scheduled catalog sync failed")
		return
	}
	if !report.Success {
		logger.Warn().Str("error", report.Error).Msg("Scheduled catalog sync did not complete")
		return
	}

	logger.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Bool("partial", report.Partial).
		Msg("Cron job completed: catalog synced")
}

func (s *CronScheduler) warmRates(ctx context.Context) {
	if err := s.rates.WarmCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to warm exchange rate cache")
	}
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
