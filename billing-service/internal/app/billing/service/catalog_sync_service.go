package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"
	"bodegaclick/billing-service/internal/app/billing/pricing"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type SyncOptions struct {
	PageDelay      time.Duration
	PriceLockAfter time.Duration
}

// CatalogSyncService mirrors the remote catalog into the product table.
//
// Prices are only taken from the remote side when the caller asks for it
// and no invoice was created within PriceLockAfter; recent invoices carry
// prices the remote catalog does not know about yet.
type CatalogSyncService struct {
	products repository.ProductRepository
	invoices repository.InvoiceRepository
	client   infrastructure.CatalogClient
	events   infrastructure.EventPublisher
	opts     SyncOptions
	defaults pricing.Config

	running atomic.Bool
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewCatalogSyncService(
	products repository.ProductRepository,
	invoices repository.InvoiceRepository,
	client infrastructure.CatalogClient,
	events infrastructure.EventPublisher,
	opts SyncOptions,
	defaults pricing.Config,
) *CatalogSyncService {
	return &CatalogSyncService{
		products: products,
		invoices: invoices,
		client:   client,
		events:   events,
		opts:     opts,
		defaults: defaults,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run fetches every page of the remote catalog and upserts it. Remote
// failures end up in the report; only database failures of the price gate
// are returned as errors.
func (s *CatalogSyncService) Run(ctx context.Context, applyPrices bool) (*entity.SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	log := logger.Operation("fetch_catalog")
	started := s.now()
	report := &entity.SyncReport{}

	if applyPrices {
		locked, err := s.invoices.ExistsCreatedSince(ctx, started.Add(-s.opts.PriceLockAfter))
		if err != nil {
			return nil, fmt.Errorf("failed to check recent invoices: %w", err)
		}
		if locked {
			log.Info().Dur("lock_window", s.opts.PriceLockAfter).Msg("Recent invoices found, remote prices will not be applied")
			applyPrices = false
		}
	}
	report.PricesApplied = applyPrices

	categories, err := s.client.ListCategories(ctx)
	if err != nil {
		report.Error = fmt.Sprintf("failed to fetch categories: %v", err)
		log.Error().Err(err).Str("outcome", "failed").Msg("Catalog sync aborted")
		s.finish(ctx, log, report, started)
		return report, nil
	}
	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	cursor := ""
	for {
		page, err := s.client.ListItems(ctx, cursor)
		if err != nil {
			if report.Pages == 0 {
				report.Error = fmt.Sprintf("failed to fetch items: %v", err)
			} else {
				report.Partial = true
				report.Error = fmt.Sprintf("failed to fetch page %d: %v", report.Pages+1, err)
			}
			log.Error().Err(err).Int("page", report.Pages+1).Msg("Failed to fetch catalog page")
			break
		}
		report.Pages++
		report.Success = true

		for i := range page.Items {
			s.syncItem(ctx, log, &page.Items[i], categoryNames, applyPrices, report)
		}

		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor

		if err := s.sleep(ctx, s.opts.PageDelay); err != nil {
			report.Partial = true
			report.Error = fmt.Sprintf("sync interrupted: %v", err)
			break
		}
	}

	s.finish(ctx, log, report, started)
	return report, nil
}

func (s *CatalogSyncService) syncItem(
	ctx context.Context,
	log zerolog.Logger,
	item *loyverse.Item,
	categoryNames map[string]string,
	applyPrices bool,
	report *entity.SyncReport,
) {
	if item.DeletedAt != nil && *item.DeletedAt != "" {
		return
	}
	if item.ID == "" {
		report.Invalid++
		report.AddDetail("item without id skipped")
		return
	}

	price, err := item.Price()
	if err != nil {
		report.Invalid++
		report.AddDetail(fmt.Sprintf("%s: %v", item.ID, err))
		log.Warn().Err(err).Str("remote_id", item.ID).Str("outcome", "invalid").Msg("Invalid remote price, using 0")
		price = decimal.Zero
	}
	// stored as decimal(10,2); compare at the same scale
	price = pricing.Round(price)

	outcome, pricesKept, err := s.upsert(ctx, item, categoryNames, price, applyPrices)
	if err != nil {
		report.Failed++
		report.AddDetail(fmt.Sprintf("%s: %v", item.ID, err))
		log.Error().Err(err).Str("remote_id", item.ID).Str("outcome", "failed").Msg("Failed to store product")
		return
	}
	if pricesKept {
		report.PricesUnchanged++
	}

	switch outcome {
	case entity.UpsertCreated:
		report.Created++
	case entity.UpsertUpdated:
		report.Updated++
	default:
		report.Unchanged++
	}
}

// upsert writes the tracked fields of one remote item. Existing rows are only
// written when a tracked field differs. pricesKept reports an existing row
// whose price fields were protected by the gate.
func (s *CatalogSyncService) upsert(
	ctx context.Context,
	item *loyverse.Item,
	categoryNames map[string]string,
	price decimal.Decimal,
	applyPrices bool,
) (outcome entity.UpsertOutcome, pricesKept bool, err error) {
	category := ""
	if item.CategoryID != nil {
		category = categoryNames[*item.CategoryID]
	}
	variantID := ""
	if v := item.FirstVariant(); v != nil {
		variantID = v.VariantID
	}
	variantIDs := item.VariantIDs()
	variable := item.VariablePricing()

	existing, err := s.products.GetByRemoteID(ctx, item.ID)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return "", false, err
	}

	if existing == nil {
		now := s.now()
		product := &entity.Product{
			RemoteID:        item.ID,
			RemoteVariantID: variantID,
			Name:            item.ItemName,
			Description:     item.Description,
			Category:        category,
			BasePrice:       price,
			PurchaseUnits:   1,
			UnitsPerPackage: 1,
			Markup:          s.defaults.DefaultMarkup,
			RateType:        s.defaults.DefaultRateType,
			VariablePricing: variable,
			PriceSource:     entity.PriceSourceRemote,
			PriceUpdatedAt:  &now,
		}
		if err := s.products.Create(ctx, product); err != nil {
			return "", false, err
		}
		if len(variantIDs) > 0 {
			if err := s.products.ReplaceVariants(ctx, product.ID, variantIDs); err != nil {
				return "", false, err
			}
		}
		return entity.UpsertCreated, false, nil
	}

	changes := map[string]interface{}{}
	if existing.Name != item.ItemName {
		changes["name"] = item.ItemName
	}
	if existing.Description != item.Description {
		changes["description"] = item.Description
	}
	if existing.Category != category {
		changes["category"] = category
	}
	if existing.RemoteVariantID != variantID {
		changes["remote_variant_id"] = variantID
	}
	if existing.VariablePricing != variable {
		changes["variable_pricing"] = variable
	}

	if !applyPrices {
		pricesKept = true
	} else if !variable && !existing.BasePrice.Equal(price) {
		changes["base_price"] = price
		changes["price_source"] = entity.PriceSourceRemote
		changes["price_updated_at"] = s.now()
	}

	variantsChanged := !slices.Equal(existing.VariantIDs(), variantIDs)
	if len(changes) == 0 && !variantsChanged {
		return entity.UpsertUnchanged, pricesKept, nil
	}
	if err := s.products.UpdateColumns(ctx, existing.ID, changes); err != nil {
		return "", pricesKept, err
	}
	if variantsChanged {
		if err := s.products.ReplaceVariants(ctx, existing.ID, variantIDs); err != nil {
			return "", pricesKept, err
		}
	}
	return entity.UpsertUpdated, pricesKept, nil
}

func (s *CatalogSyncService) finish(ctx context.Context, log zerolog.Logger, report *entity.SyncReport, started time.Time) {
	status := "success"
	switch {
	case !report.Success:
		status = "failed"
	case report.Partial:
		status = "partial"
	}

	metrics.CatalogSyncRuns.WithLabelValues(status).Inc()
	metrics.CatalogSyncDuration.Observe(s.now().Sub(started).Seconds())
	metrics.RecordSyncOutcome("created", report.Created)
	metrics.RecordSyncOutcome("updated", report.Updated)
	metrics.RecordSyncOutcome("unchanged", report.Unchanged)
	metrics.RecordSyncOutcome("prices_unchanged", report.PricesUnchanged)
	metrics.RecordSyncOutcome("invalid", report.Invalid)

	log.Info().
		Str("outcome", status).
		Bool("prices_applied", report.PricesApplied).
		Int("pages", report.Pages).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("prices_unchanged", report.PricesUnchanged).
		Int("invalid", report.Invalid).
		Int("failed", report.Failed).
		Msg("Catalog sync finished")

	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	event := &entity.BillingEvent{EventType: entity.EventCatalogSynced, Payload: payload}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		log.Warn().Err(err).Msg("Failed to publish catalog sync event")
	}
}
