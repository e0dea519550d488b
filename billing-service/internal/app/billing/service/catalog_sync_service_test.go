package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/messaging"
	"bodegaclick/billing-service/internal/app/billing/pricing"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/billing-service/internal/app/billing/repository/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func strPtr(s string) *string { return &s }

func remoteItem(id, name, price string) loyverse.Item {
	return loyverse.Item{
		ID:         id,
		ItemName:   name,
		CategoryID: strPtr("cat-1"),
		Variants: []loyverse.Variant{{
			VariantID:          "var-" + id,
			ItemID:             id,
			DefaultPricingType: loyverse.PricingFixed,
			DefaultPrice:       json.RawMessage(price),
		}},
	}
}

type CatalogSyncTestSuite struct {
	suite.Suite
	db       *gorm.DB
	products repository.ProductRepository
	invoices repository.InvoiceRepository
	client   *mocks.MockCatalogClient
	svc      *CatalogSyncService
	ctx      context.Context
}

func (s *CatalogSyncTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(repository.AutoMigrate(db))

	s.db = db
	s.products = repository.NewProductRepository(db)
	s.invoices = repository.NewInvoiceRepository(db)
	s.client = new(mocks.MockCatalogClient)
	s.ctx = context.Background()
	s.svc = NewCatalogSyncService(s.products, s.invoices, s.client, messaging.NoopPublisher{},
		SyncOptions{PageDelay: time.Millisecond, PriceLockAfter: 48 * time.Hour},
		pricing.DefaultConfig())
	s.svc.sleep = func(context.Context, time.Duration) error { return nil }
}

func (s *CatalogSyncTestSuite) TearDownTest() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
}

func TestCatalogSyncTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogSyncTestSuite))
}

func (s *CatalogSyncTestSuite) stubCatalog(pages ...[]loyverse.Item) {
	s.client.On("ListCategories", s.ctx).Return([]loyverse.Category{{ID: "cat-1", Name: "Víveres"}}, nil)
	cursor := ""
	for i, items := range pages {
		next := ""
		if i < len(pages)-1 {
			next = fmt.Sprintf("page-%d", i+2)
		}
		s.client.On("ListItems", s.ctx, cursor).Return(&loyverse.ItemsPage{Items: items, Cursor: next}, nil)
		cursor = next
	}
}

func (s *CatalogSyncTestSuite) seedInvoice(age time.Duration) {
	invoice := &entity.Invoice{
		Number:    NewInvoiceNumber(time.Now()),
		Currency:  entity.CurrencyUSD,
		Markup:    decimal.NewFromInt(30),
		CreatedAt: time.Now().Add(-age),
	}
	s.Require().NoError(s.invoices.Create(s.ctx, invoice))
}

// seedProduct stores an existing mirror row together with its variant.
func (s *CatalogSyncTestSuite) seedProduct(product *entity.Product) {
	s.Require().NoError(s.products.Create(s.ctx, product))
	s.Require().NoError(s.products.ReplaceVariants(s.ctx, product.ID, []string{product.RemoteVariantID}))
}

// ===================== Run Tests =====================

func (s *CatalogSyncTestSuite) TestRun_CreatesProductsAcrossPages() {
	// Arrange
	s.stubCatalog(
		[]loyverse.Item{remoteItem("a", "Harina", "1.50"), remoteItem("b", "Arroz", `"2.25"`)},
		[]loyverse.Item{remoteItem("c", "Azúcar", "3")},
	)

	// Act
	report, err := s.svc.Run(s.ctx, true)

	// Assert
	s.Require().NoError(err)
	s.True(report.Success)
	s.False(report.Partial)
	s.True(report.PricesApplied)
	s.Equal(2, report.Pages)
	s.Equal(3, report.Created)

	product, err := s.products.GetByRemoteID(s.ctx, "b")
	s.Require().NoError(err)
	s.Equal("Arroz", product.Name)
	s.Equal("Víveres", product.Category)
	s.Equal("var-b", product.RemoteVariantID)
	s.Equal("2.25", product.BasePrice.StringFixed(2))
	s.Equal("30.00", product.Markup.StringFixed(2))
	s.Equal(entity.RateTypeOfficial, product.RateType)
	s.Equal(entity.PriceSourceRemote, product.PriceSource)
}

func (s *CatalogSyncTestSuite) TestRun_SecondIdenticalRunUpdatesNothing() {
	s.stubCatalog([]loyverse.Item{
		remoteItem("a", "Harina", "1.50"),
		remoteItem("b", "Arroz", "2.25"),
		remoteItem("c", "Aceite", "1.005"),
	})

	first, err := s.svc.Run(s.ctx, true)
	s.Require().NoError(err)
	s.Equal(3, first.Created)

	second, err := s.svc.Run(s.ctx, true)
	s.Require().NoError(err)
	s.Equal(0, second.Created)
	s.Equal(0, second.Updated)
	s.Equal(3, second.Unchanged)

	product, err := s.products.GetByRemoteID(s.ctx, "c")
	s.Require().NoError(err)
	s.Equal("1.01", product.BasePrice.String())
}

func (s *CatalogSyncTestSuite) TestRun_StoresEveryVariant() {
	item := remoteItem("q", "Queso", "5.00")
	item.Variants[0].VariantID = "v-small"
	item.Variants = append(item.Variants, loyverse.Variant{
		VariantID:          "v-large",
		ItemID:             "q",
		DefaultPricingType: loyverse.PricingFixed,
		DefaultPrice:       json.RawMessage("9.00"),
	})
	s.stubCatalog([]loyverse.Item{item})

	first, err := s.svc.Run(s.ctx, true)
	s.Require().NoError(err)
	s.Equal(1, first.Created)

	second, err := s.svc.Run(s.ctx, true)
	s.Require().NoError(err)
	s.Equal(1, second.Unchanged)

	product, err := s.products.GetByRemoteID(s.ctx, "q")
	s.Require().NoError(err)
	s.Equal("v-small", product.RemoteVariantID)
	s.Equal([]string{"v-small", "v-large"}, product.VariantIDs())
}

func (s *CatalogSyncTestSuite) TestRun_NewVariantOnKnownItemIsStored() {
	existing := &entity.Product{RemoteID: "q", RemoteVariantID: "var-q", Name: "Queso", Category: "Víveres",
		BasePrice: decimal.NewFromInt(5), UnitsPerPackage: 1, PurchaseUnits: 1,
		Markup: decimal.NewFromInt(30), RateType: entity.RateTypeOfficial, PriceSource: entity.PriceSourceRemote}
	s.seedProduct(existing)
	item := remoteItem("q", "Queso", "5")
	item.Variants = append(item.Variants, loyverse.Variant{VariantID: "v-large", ItemID: "q", DefaultPricingType: loyverse.PricingFixed})
	s.stubCatalog([]loyverse.Item{item})

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.Equal(1, report.Updated)
	product, err := s.products.GetByVariantID(s.ctx, "v-large")
	s.Require().NoError(err)
	s.Equal(existing.ID, product.ID)
}

// Stock deliveries for any variant of a mirrored item land on that item
// without refreshing the catalog.
func (s *CatalogSyncTestSuite) TestWebhook_OtherVariantOfKnownItemUpdatesStock() {
	// Arrange
	item := remoteItem("q", "Queso", "5.00")
	item.Variants[0].VariantID = "v-small"
	item.Variants = append(item.Variants, loyverse.Variant{
		VariantID:          "v-large",
		ItemID:             "q",
		DefaultPricingType: loyverse.PricingFixed,
		DefaultPrice:       json.RawMessage("9.00"),
	})
	s.stubCatalog([]loyverse.Item{item})
	_, err := s.svc.Run(s.ctx, true)
	s.Require().NoError(err)

	dedup := new(mocks.MockDeliveryDeduplicator)
	dedup.On("MarkSeen", s.ctx, mock.AnythingOfType("string")).Return(true, nil)
	notifier := new(mocks.MockNotifier)
	notifier.On("Broadcast", mock.Anything).Return()
	webhooks := NewWebhookService(new(mocks.MockWebhookRepository), s.products, s.client, s.svc, dedup,
		repository.NoopDeliveryLog{}, notifier, messaging.NoopPublisher{}, WebhookOptions{Secret: testSecret})

	// Act
	for _, stock := range []int64{3, 5, 7} {
		body := inventoryBody(s.T(), entity.InventoryLevel{VariantID: "v-large", StoreID: "s1", InStock: decimal.NewFromInt(stock)})
		result, err := webhooks.HandleDelivery(s.ctx, body, Sign(testSecret, body), false)

		s.Require().NoError(err)
		s.Equal(1, result.Updated)
		s.Empty(result.Unmatched)
	}

	// Assert
	product, err := s.products.GetByRemoteID(s.ctx, "q")
	s.Require().NoError(err)
	s.True(product.Stock.Equal(decimal.NewFromInt(7)), product.Stock.String())
	s.client.AssertNumberOfCalls(s.T(), "ListItems", 1)
}

func (s *CatalogSyncTestSuite) TestRun_RecentInvoiceKeepsPrices() {
	// Arrange
	existing := &entity.Product{
		RemoteID:        "a",
		RemoteVariantID: "var-a",
		Name:            "Harina",
		Category:        "Víveres",
		BasePrice:       decimal.RequireFromString("9.99"),
		SalePrice:       decimal.RequireFromString("12.00"),
		Markup:          decimal.NewFromInt(30),
		RateType:        entity.RateTypeOfficial,
		PriceSource:     entity.PriceSourceInvoice,
		UnitsPerPackage: 1,
		PurchaseUnits:   1,
	}
	s.seedProduct(existing)
	s.seedInvoice(time.Hour)
	s.stubCatalog([]loyverse.Item{remoteItem("a", "Harina PAN", "1.50")})

	// Act
	report, err := s.svc.Run(s.ctx, true)

	// Assert
	s.Require().NoError(err)
	s.False(report.PricesApplied)
	s.Positive(report.PricesUnchanged)
	s.Equal(1, report.Updated)

	product, err := s.products.GetByRemoteID(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("Harina PAN", product.Name)
	s.Equal("9.99", product.BasePrice.StringFixed(2))
	s.Equal("12.00", product.SalePrice.StringFixed(2))
	s.Equal(entity.PriceSourceInvoice, product.PriceSource)
}

func (s *CatalogSyncTestSuite) TestRun_OldInvoiceDoesNotBlockPrices() {
	existing := &entity.Product{RemoteID: "a", RemoteVariantID: "var-a", Name: "Harina", Category: "Víveres",
		BasePrice: decimal.RequireFromString("9.99"), UnitsPerPackage: 1, PurchaseUnits: 1,
		Markup: decimal.NewFromInt(30), RateType: entity.RateTypeOfficial, PriceSource: entity.PriceSourceInvoice}
	s.seedProduct(existing)
	s.seedInvoice(72 * time.Hour)
	s.stubCatalog([]loyverse.Item{remoteItem("a", "Harina", "1.50")})

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.True(report.PricesApplied)
	s.Equal(1, report.Updated)
	product, err := s.products.GetByRemoteID(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("1.50", product.BasePrice.StringFixed(2))
	s.Equal(entity.PriceSourceRemote, product.PriceSource)
}

func (s *CatalogSyncTestSuite) TestRun_NewProductGetsPriceWhenGated() {
	s.seedInvoice(time.Hour)
	s.stubCatalog([]loyverse.Item{remoteItem("n", "Nuevo", "4.00")})

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.False(report.PricesApplied)
	s.Equal(1, report.Created)
	product, err := s.products.GetByRemoteID(s.ctx, "n")
	s.Require().NoError(err)
	s.Equal("4.00", product.BasePrice.StringFixed(2))
}

func (s *CatalogSyncTestSuite) TestRun_InvalidPriceIsCountedAndStoredAsZero() {
	s.stubCatalog([]loyverse.Item{remoteItem("x", "Raro", `"abc"`), remoteItem("y", "Normal", "1")})

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.Equal(1, report.Invalid)
	s.Equal(2, report.Created)
	s.NotEmpty(report.Details)
	product, err := s.products.GetByRemoteID(s.ctx, "x")
	s.Require().NoError(err)
	s.True(product.BasePrice.IsZero())
}

func (s *CatalogSyncTestSuite) TestRun_SkipsDeletedItems() {
	deleted := remoteItem("d", "Borrado", "1")
	deleted.DeletedAt = strPtr("2024-01-01T00:00:00Z")
	s.stubCatalog([]loyverse.Item{deleted})

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.Equal(0, report.Created)
	_, err = s.products.GetByRemoteID(s.ctx, "d")
	s.ErrorIs(err, repository.ErrProductNotFound)
}

func (s *CatalogSyncTestSuite) TestRun_VariablePricedKeepsPrice() {
	existing := &entity.Product{RemoteID: "v", RemoteVariantID: "var-v", Name: "Queso", Category: "Víveres",
		BasePrice: decimal.NewFromInt(7), VariablePricing: true, UnitsPerPackage: 1, PurchaseUnits: 1,
		Markup: decimal.NewFromInt(30), RateType: entity.RateTypeOfficial, PriceSource: entity.PriceSourceRemote}
	s.seedProduct(existing)
	item := remoteItem("v", "Queso", "null")
	item.Variants[0].DefaultPricingType = loyverse.PricingVariable
	s.stubCatalog([]loyverse.Item{item})

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.Equal(1, report.Unchanged)
	product, err := s.products.GetByRemoteID(s.ctx, "v")
	s.Require().NoError(err)
	s.Equal("7.00", product.BasePrice.StringFixed(2))
}

func (s *CatalogSyncTestSuite) TestRun_FirstPageFailure() {
	s.client.On("ListCategories", s.ctx).Return([]loyverse.Category{}, nil)
	s.client.On("ListItems", s.ctx, "").Return(nil, loyverse.ErrRemoteUnavailable)

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.False(report.Success)
	s.False(report.Partial)
	s.NotEmpty(report.Error)
}

func (s *CatalogSyncTestSuite) TestRun_LaterPageFailureIsPartial() {
	s.client.On("ListCategories", s.ctx).Return([]loyverse.Category{}, nil)
	s.client.On("ListItems", s.ctx, "").
		Return(&loyverse.ItemsPage{Items: []loyverse.Item{remoteItem("a", "Harina", "1")}, Cursor: "next"}, nil)
	s.client.On("ListItems", s.ctx, "next").Return(nil, loyverse.ErrRemoteUnavailable)

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.True(report.Success)
	s.True(report.Partial)
	s.Equal(1, report.Pages)
	s.Equal(1, report.Created)
}

func (s *CatalogSyncTestSuite) TestRun_CategoryFailureAborts() {
	s.client.On("ListCategories", s.ctx).Return(nil, loyverse.ErrRemoteUnavailable)

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.False(report.Success)
	s.client.AssertNotCalled(s.T(), "ListItems", mock.Anything, mock.Anything)
}

func (s *CatalogSyncTestSuite) TestRun_WithoutPricesCountsUnchangedPrices() {
	existing := &entity.Product{RemoteID: "a", RemoteVariantID: "var-a", Name: "Harina", Category: "Víveres",
		BasePrice: decimal.NewFromInt(9), UnitsPerPackage: 1, PurchaseUnits: 1,
		Markup: decimal.NewFromInt(30), RateType: entity.RateTypeOfficial, PriceSource: entity.PriceSourceRemote}
	s.seedProduct(existing)
	s.stubCatalog([]loyverse.Item{remoteItem("a", "Harina", "1.50")})

	report, err := s.svc.Run(s.ctx, false)

	s.Require().NoError(err)
	s.False(report.PricesApplied)
	s.Equal(1, report.PricesUnchanged)
	s.Equal(1, report.Unchanged)
}

func (s *CatalogSyncTestSuite) TestRun_InterruptedBetweenPages() {
	s.svc.sleep = func(context.Context, time.Duration) error { return context.Canceled }
	s.stubCatalog([]loyverse.Item{remoteItem("a", "Harina", "1")}, []loyverse.Item{remoteItem("b", "Arroz", "1")})

	report, err := s.svc.Run(s.ctx, true)

	s.Require().NoError(err)
	s.True(report.Partial)
	s.Equal(1, report.Pages)
}

// ===================== Gate Tests =====================

func TestRun_GateDatabaseErrorPropagates(t *testing.T) {
	invoices := new(mocks.MockInvoiceRepository)
	client := new(mocks.MockCatalogClient)
	svc := NewCatalogSyncService(new(mocks.MockProductRepository), invoices, client, messaging.NoopPublisher{},
		SyncOptions{PriceLockAfter: 48 * time.Hour}, pricing.DefaultConfig())
	ctx := context.Background()

	invoices.On("ExistsCreatedSince", ctx, mock.AnythingOfType("time.Time")).Return(false, errors.New("db down"))

	report, err := svc.Run(ctx, true)

	assert.Error(t, err)
	assert.Nil(t, report)
	client.AssertNotCalled(t, "ListCategories", mock.Anything)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	svc := NewCatalogSyncService(nil, nil, nil, messaging.NoopPublisher{}, SyncOptions{}, pricing.DefaultConfig())
	svc.running.Store(true)

	_, err := svc.Run(context.Background(), false)

	assert.ErrorIs(t, err, ErrSyncInProgress)
}
