package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ProductRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo ProductRepository
}

func TestProductRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProductRepositoryTestSuite))
}

func (s *ProductRepositoryTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.repo = NewProductRepository(s.db)
}

func (s *ProductRepositoryTestSuite) newProduct(remoteID, name string) *entity.Product {
	p := &entity.Product{
		RemoteID:        remoteID,
		RemoteVariantID: "var-" + remoteID,
		Name:            name,
		Category:        "Viveres",
		BasePrice:       decimal.RequireFromString("1.50"),
		PurchaseUnits:   1,
		UnitsPerPackage: 1,
		Markup:          decimal.NewFromInt(30),
		RateType:        entity.RateTypeOfficial,
		PriceSource:     entity.PriceSourceRemote,
	}
	s.Require().NoError(s.repo.Create(context.Background(), p))
	return p
}

// ===================== Lookup Tests =====================

func (s *ProductRepositoryTestSuite) TestGetByRemoteIDAndVariant() {
	ctx := context.Background()
	created := s.newProduct("item-1", "Harina PAN")

	byRemote, err := s.repo.GetByRemoteID(ctx, "item-1")
	s.Require().NoError(err)
	s.Equal(created.ID, byRemote.ID)
	s.True(byRemote.BasePrice.Equal(decimal.RequireFromString("1.50")))

	byVariant, err := s.repo.GetByVariantID(ctx, "var-item-1")
	s.Require().NoError(err)
	s.Equal(created.ID, byVariant.ID)
}

func (s *ProductRepositoryTestSuite) TestReplaceVariants_EveryVariantResolves() {
	ctx := context.Background()
	created := s.newProduct("item-1", "Queso")

	s.Require().NoError(s.repo.ReplaceVariants(ctx, created.ID, []string{"v-small", "v-large"}))

	for _, variantID := range []string{"var-item-1", "v-small", "v-large"} {
		product, err := s.repo.GetByVariantID(ctx, variantID)
		s.Require().NoError(err, variantID)
		s.Equal(created.ID, product.ID)
	}

	byRemote, err := s.repo.GetByRemoteID(ctx, "item-1")
	s.Require().NoError(err)
	s.Equal([]string{"v-small", "v-large"}, byRemote.VariantIDs())
}

func (s *ProductRepositoryTestSuite) TestReplaceVariants_ReplacesAndMoves() {
	ctx := context.Background()
	first := s.newProduct("item-1", "Queso")
	second := s.newProduct("item-2", "Leche")
	s.Require().NoError(s.repo.ReplaceVariants(ctx, first.ID, []string{"v-a", "v-b"}))

	s.Require().NoError(s.repo.ReplaceVariants(ctx, first.ID, []string{"v-a"}))
	s.Require().NoError(s.repo.ReplaceVariants(ctx, second.ID, []string{"v-a", "v-c"}))

	_, err := s.repo.GetByVariantID(ctx, "v-b")
	s.ErrorIs(err, ErrProductNotFound)

	moved, err := s.repo.GetByVariantID(ctx, "v-a")
	s.Require().NoError(err)
	s.Equal(second.ID, moved.ID)

	byRemote, err := s.repo.GetByRemoteID(ctx, "item-1")
	s.Require().NoError(err)
	s.Empty(byRemote.VariantIDs())
}

func (s *ProductRepositoryTestSuite) TestGet_NotFound() {
	ctx := context.Background()

	_, err := s.repo.GetByID(ctx, 999)
	s.ErrorIs(err, ErrProductNotFound)

	_, err = s.repo.GetByRemoteID(ctx, "missing")
	s.ErrorIs(err, ErrProductNotFound)

	_, err = s.repo.GetByVariantID(ctx, "")
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *ProductRepositoryTestSuite) TestCreate_DuplicateRemoteID() {
	s.newProduct("item-1", "A")

	err := s.repo.Create(context.Background(), &entity.Product{RemoteID: "item-1", Name: "B"})
	s.ErrorIs(err, gorm.ErrDuplicatedKey)
}

func (s *ProductRepositoryTestSuite) TestGetByIDs() {
	a := s.newProduct("a", "A")
	b := s.newProduct("b", "B")

	found, err := s.repo.GetByIDs(context.Background(), []uint{a.ID, b.ID, 999})
	s.Require().NoError(err)
	s.Len(found, 2)
	s.Equal("B", found[b.ID].Name)

	empty, err := s.repo.GetByIDs(context.Background(), nil)
	s.NoError(err)
	s.Empty(empty)
}

// ===================== List Tests =====================

func (s *ProductRepositoryTestSuite) TestList_SearchAndPaging() {
	s.newProduct("1", "Arroz Mary")
	s.newProduct("2", "Harina PAN")
	s.newProduct("3", "Harina Juana")

	products, total, err := s.repo.List(context.Background(), entity.ProductFilter{Search: "harina", Limit: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(products, 1)
	s.Equal("Harina Juana", products[0].Name)

	products, _, err = s.repo.List(context.Background(), entity.ProductFilter{Search: "harina", Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(products, 1)
	s.Equal("Harina PAN", products[0].Name)

	all, total, err := s.repo.List(context.Background(), entity.ProductFilter{})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(all, 3)
}

// ===================== Update Tests =====================

func (s *ProductRepositoryTestSuite) TestUpdateColumns() {
	ctx := context.Background()
	p := s.newProduct("item-1", "Old")

	err := s.repo.UpdateColumns(ctx, p.ID, map[string]interface{}{"name": "New"})
	s.Require().NoError(err)

	got, err := s.repo.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("New", got.Name)
	s.True(got.BasePrice.Equal(decimal.RequireFromString("1.50")))

	s.ErrorIs(s.repo.UpdateColumns(ctx, 999, map[string]interface{}{"name": "x"}), ErrProductNotFound)
	s.NoError(s.repo.UpdateColumns(ctx, p.ID, nil))
}

func (s *ProductRepositoryTestSuite) TestUpdateStock() {
	ctx := context.Background()
	p := s.newProduct("item-1", "Harina")
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.repo.UpdateStock(ctx, p.ID, decimal.RequireFromString("42.5"), at))

	got, err := s.repo.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.True(got.Stock.Equal(decimal.RequireFromString("42.5")))
	s.Require().NotNil(got.StockUpdatedAt)
	s.True(got.StockUpdatedAt.Equal(at))
}

func (s *ProductRepositoryTestSuite) TestSave_FullUpdate() {
	ctx := context.Background()
	p := s.newProduct("item-1", "Harina")

	p.PurchaseCostUSD = decimal.NewNullDecimal(decimal.RequireFromString("10.00"))
	p.UnitsPerPackage = 5
	p.SalePrice = decimal.RequireFromString("104.00")
	p.PriceSource = entity.PriceSourceComputed
	s.Require().NoError(s.repo.Save(ctx, p))

	got, err := s.repo.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.True(got.PurchaseCostUSD.Valid)
	s.True(got.SalePrice.Equal(decimal.RequireFromString("104")))
	s.Equal(5, got.UnitsPerPackage)
	s.Equal(entity.PriceSourceComputed, got.PriceSource)
}

// ===================== DB Error Tests =====================

func TestProductRepository_DBError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1`)).
		WillReturnError(sql.ErrConnDone)

	_, err = NewProductRepository(db).GetByID(context.Background(), 1)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
	assert.Contains(t, err.Error(), "failed to get product")
	assert.NoError(t, mock.ExpectationsWereMet())
}
