package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure"
	"bodegaclick/billing-service/internal/app/billing/pricing"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	invoiceNumberPrefix     = "FAC"
	defaultInvoiceListLimit = 20
	maxInvoiceListLimit     = 200
)

// InvoiceService creates invoices and applies their prices to the catalog.
type InvoiceService struct {
	invoices repository.InvoiceRepository
	products repository.ProductRepository
	rates    RateProvider
	pusher   PricePusher
	events   infrastructure.EventPublisher
	defaults pricing.Config
	now      func() time.Time
}

func NewInvoiceService(
	invoices repository.InvoiceRepository,
	products repository.ProductRepository,
	rates RateProvider,
	pusher PricePusher,
	events infrastructure.EventPublisher,
	defaults pricing.Config,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		products: products,
		rates:    rates,
		pusher:   pusher,
		events:   events,
		defaults: defaults,
		now:      time.Now,
	}
}

// NewInvoiceNumber returns FAC-YYYYMMDD-XXXXXXXX with a random suffix.
func NewInvoiceNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", invoiceNumberPrefix, at.Format("20060102"), suffix)
}

// Create validates the request, computes line and invoice totals and stores
// the invoice with its lines in one transaction.
func (s *InvoiceService) Create(ctx context.Context, req *entity.CreateInvoiceRequest) (*entity.Invoice, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(req.Lines))
	seen := make(map[uint]bool, len(req.Lines))
	for _, line := range req.Lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
		}
	}

	rate, err := s.resolveRate(ctx, req)
	if err != nil {
		return nil, err
	}

	markup := s.defaults.DefaultMarkup
	if req.Markup != nil {
		markup = *req.Markup
	}

	invoice := &entity.Invoice{
		Number:   NewInvoiceNumber(s.now()),
		Currency: req.Currency,
		Markup:   markup,
		Lines:    make([]entity.InvoiceLine, 0, len(req.Lines)),
	}

	sum := decimal.Zero
	for _, lr := range req.Lines {
		product := products[lr.ProductID]

		units := 1
		switch {
		case lr.UnitsPerPackage != nil:
			units = *lr.UnitsPerPackage
		case product.UnitsPerPackage > 0:
			units = product.UnitsPerPackage
		}

		line := entity.InvoiceLine{
			ProductID:       lr.ProductID,
			Quantity:        lr.Quantity,
			UnitPrice:       lr.UnitPrice,
			Total:           pricing.LineTotal(lr.Quantity, lr.UnitPrice),
			UnitsPerPackage: units,
		}
		if lr.Markup != nil {
			line.Markup = decimal.NewNullDecimal(*lr.Markup)
		}
		if lr.PurchaseCostUSD != nil {
			line.PurchaseCostUSD = decimal.NewNullDecimal(*lr.PurchaseCostUSD)
		}

		sum = sum.Add(line.Total)
		invoice.Lines = append(invoice.Lines, line)
	}

	log := logger.Operation("create_invoice")

	if rate != nil {
		invoice.ExchangeRateID = &rate.ID
	}
	switch req.Currency {
	case entity.CurrencyBS:
		invoice.TotalBS = pricing.Round(sum)
		if rate != nil && rate.Value.IsPositive() {
			invoice.TotalUSD = pricing.Round(sum.Div(rate.Value))
		}
	default:
		invoice.TotalUSD = pricing.Round(sum)
		if rate != nil && rate.Value.IsPositive() {
			invoice.TotalBS = pricing.Round(sum.Mul(rate.Value))
		}
	}
	if rate == nil {
		log.Warn().Str("currency", string(req.Currency)).Msg("Invoice has no exchange rate, derived total is zero")
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		if errors.Is(err, repository.ErrDuplicateInvoiceNumber) {
			return nil, ErrDuplicateInvoiceNumber
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	invoice.ExchangeRate = rate

	metrics.InvoicesCreated.WithLabelValues(string(invoice.Currency)).Inc()
	log.Info().
		Uint("invoice_id", invoice.ID).
		Str("number", invoice.Number).
		Str("total_usd", invoice.TotalUSD.StringFixed(2)).
		Str("total_bs", invoice.TotalBS.StringFixed(2)).
		Msg("Invoice created")

	s.publish(ctx, entity.EventInvoiceCreated, invoice.ID, invoice)
	return invoice, nil
}

func (s *InvoiceService) validate(req *entity.CreateInvoiceRequest) error {
	if req == nil || len(req.Lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrInvalidInvoice)
	}
	if !req.Currency.Valid() {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidInvoice, req.Currency)
	}
	if req.RateType != "" && !req.RateType.Valid() {
		return fmt.Errorf("%w: unknown rate type %q", ErrInvalidInvoice, req.RateType)
	}
	if req.Markup != nil && req.Markup.IsNegative() {
		return fmt.Errorf("%w: markup must not be negative", ErrInvalidInvoice)
	}
	for i, line := range req.Lines {
		switch {
		case line.ProductID == 0:
			return fmt.Errorf("%w: line %d has no product", ErrInvalidInvoice, i+1)
		case !line.Quantity.IsPositive():
			return fmt.Errorf("%w: line %d quantity must be positive", ErrInvalidInvoice, i+1)
		case line.UnitPrice.IsNegative():
			return fmt.Errorf("%w: line %d unit price must not be negative", ErrInvalidInvoice, i+1)
		case line.Markup != nil && line.Markup.IsNegative():
			return fmt.Errorf("%w: line %d markup must not be negative", ErrInvalidInvoice, i+1)
		case line.PurchaseCostUSD != nil && line.PurchaseCostUSD.IsNegative():
			return fmt.Errorf("%w: line %d purchase cost must not be negative", ErrInvalidInvoice, i+1)
		case line.UnitsPerPackage != nil && *line.UnitsPerPackage <= 0:
			return fmt.Errorf("%w: line %d: %v", ErrInvalidInvoice, i+1, ErrInvalidUnits)
		}
	}
	return nil
}

// resolveRate picks the explicit rate, the latest rate of the requested type,
// or none.
func (s *InvoiceService) resolveRate(ctx context.Context, req *entity.CreateInvoiceRequest) (*entity.ExchangeRate, error) {
	if req.ExchangeRateID != nil {
		rate, err := s.rates.GetByID(ctx, *req.ExchangeRateID)
		if err != nil {
			return nil, err
		}
		return rate, nil
	}
	if req.RateType != "" {
		return s.rates.Latest(ctx, req.RateType)
	}
	return nil, nil
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (*entity.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, limit, offset int) ([]entity.Invoice, int64, error) {
	if limit <= 0 {
		limit = defaultInvoiceListLimit
	}
	if limit > maxInvoiceListLimit {
		limit = maxInvoiceListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.invoices.List(ctx, limit, offset)
}

// Process copies every line's cost, units, markup and price onto its
// product, then pushes the product price to the remote catalog. The invoice
// is marked synced once all lines were attempted, whatever their outcome.
func (s *InvoiceService) Process(ctx context.Context, id uint) (*entity.ProcessReport, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	log := logger.Operation("process_invoice").With().Uint("invoice_id", invoice.ID).Logger()
	report := &entity.ProcessReport{
		InvoiceID: invoice.ID,
		Number:    invoice.Number,
		Details:   make([]entity.PushResult, 0, len(invoice.Lines)),
	}

	for i := range invoice.Lines {
		line := &invoice.Lines[i]

		product := line.Product
		if product == nil {
			product, err = s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				report.Failed++
				report.Details = append(report.Details, entity.PushResult{
					ProductID: line.ProductID,
					Status:    entity.PushFailed,
					Error:     err.Error(),
				})
				log.Warn().Err(err).Uint("product_id", line.ProductID).Msg("Invoice line product unavailable")
				continue
			}
		}

		s.applyLine(invoice, line, product)
		if err := s.products.Save(ctx, product); err != nil {
			report.Failed++
			report.Details = append(report.Details, entity.PushResult{
				ProductID: product.ID,
				RemoteID:  product.RemoteID,
				Name:      product.Name,
				Price:     product.SalePrice,
				Status:    entity.PushFailed,
				Error:     fmt.Sprintf("failed to save product: %v", err),
			})
			log.Error().Err(err).Uint("product_id", product.ID).Str("outcome", "failed").Msg("Failed to save product")
			continue
		}

		result := s.pusher.PushPrice(ctx, product)
		switch result.Status {
		case entity.PushUpdated:
			report.Updated++
		case entity.PushSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		report.Details = append(report.Details, result)
	}

	if err := s.invoices.MarkSynced(ctx, invoice.ID); err != nil {
		return nil, fmt.Errorf("failed to mark invoice synced: %w", err)
	}
	report.Synced = true

	status := "success"
	if report.Failed > 0 {
		status = "partial"
	}
	metrics.InvoicesProcessed.WithLabelValues(status).Inc()
	log.Info().
		Str("outcome", status).
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("Invoice processed")

	s.publish(ctx, entity.EventInvoiceProcessed, invoice.ID, report)
	return report, nil
}

// applyLine writes the line's purchase data onto the product.
func (s *InvoiceService) applyLine(invoice *entity.Invoice, line *entity.InvoiceLine, product *entity.Product) {
	now := s.now()

	if line.PurchaseCostUSD.Valid {
		product.PurchaseCostUSD = line.PurchaseCostUSD
		if invoice.ExchangeRate != nil && invoice.ExchangeRate.Value.IsPositive() {
			product.PurchaseCost = pricing.Round(line.PurchaseCostUSD.Decimal.Mul(invoice.ExchangeRate.Value))
			product.PurchaseUnits = line.UnitsPerPackage
		}
	}
	product.UnitsPerPackage = line.UnitsPerPackage

	if line.Markup.Valid {
		product.Markup = line.Markup.Decimal
	} else {
		product.Markup = invoice.Markup
	}

	product.BasePrice = line.UnitPrice
	product.SalePrice = line.UnitPrice
	product.PriceSource = entity.PriceSourceInvoice
	product.PriceUpdatedAt = &now
}

// RequestProcessing queues the invoice for the background processor.
func (s *InvoiceService) RequestProcessing(ctx context.Context, id uint) error {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	event := &entity.BillingEvent{EventType: entity.EventInvoiceProcessRequested, InvoiceID: invoice.ID}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to queue invoice processing: %w", err)
	}
	return nil
}

// HandleEvent processes INVOICE_PROCESS_REQUESTED events and ignores the rest.
func (s *InvoiceService) HandleEvent(ctx context.Context, event *entity.BillingEvent) error {
	if event.EventType != entity.EventInvoiceProcessRequested {
		return nil
	}
	if event.InvoiceID == 0 {
		logger.Warn().Str("event_id", event.EventID).Msg("Processing request without invoice id, dropping event")
		return nil
	}
	_, err := s.Process(ctx, event.InvoiceID)
	if errors.Is(err, ErrInvoiceNotFound) {
		logger.Warn().Uint("invoice_id", event.InvoiceID).Msg("Invoice for processing request not found, dropping event")
		return nil
	}
	return err
}

func (s *InvoiceService) publish(ctx context.Context, eventType string, invoiceID uint, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to encode event payload")
		return
	}
	event := &entity.BillingEvent{EventType: eventType, InvoiceID: invoiceID, Payload: data}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Uint("invoice_id", invoiceID).Msg("Failed to publish event")
	}
}
