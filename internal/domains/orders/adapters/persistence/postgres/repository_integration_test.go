//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newOrder(t *testing.T, id, userID, productID string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(domain.Params{
		ID:     id,
		UserID: userID,
		Email:  "buyer@example.com",
		Items: []domain.LineItem{
			{ProductID: productID, Name: "Lamp", Quantity: 2, UnitPrice: decimal.NewFromInt(150000)},
			{ProductID: "p-extra", Name: "Bulb", Quantity: 1, UnitPrice: decimal.NewFromInt(20000), Discount: 10},
		},
		Shipping:      domain.ShippingAddress{FullName: "Ana", Address: "1 Main", City: "Hanoi", Phone: "0900"},
		Delivery:      "standard",
		PaymentMethod: domain.PaymentCashOnDelivery,
		Totals:        domain.Totals{Items: decimal.NewFromInt(320000), Total: decimal.NewFromInt(320000)},
	}, time.Now())
	require.NoError(t, err)
	order.MarkReserved()
	return order
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, "o-1", "u-1", "p-1")
	saved, err := repo.Create(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Entity.Version)
	require.Len(t, saved.Entity.Items, 2)
	assert.Equal(t, "p-1", saved.Entity.Items[0].ProductID)
	assert.True(t, saved.Entity.Items[0].UnitPrice.Equal(decimal.NewFromInt(150000)))
	assert.True(t, saved.Entity.StockReserved)
	assert.False(t, saved.Metadata.CreatedAt.IsZero())

	_, err = repo.Create(ctx, newOrder(t, "o-1", "u-1", "p-1"))
	assert.ErrorIs(t, err, ports.ErrConflict)
}

func TestRepository_UpdateIsVersionChecked(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, newOrder(t, "o-2", "u-1", "p-1"))
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, "o-2")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "o-2")
	require.NoError(t, err)

	_, err = first.Entity.Cancel(time.Now())
	require.NoError(t, err)
	updated, err := repo.Update(ctx, first.Entity)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryCancelled, updated.Entity.DeliveryStatus)
	assert.Equal(t, int64(2), updated.Entity.Version)
	assert.True(t, updated.Entity.StockReserved, "stock stays owed until the release is recorded")
	require.NotNil(t, updated.Entity.ReleaseClaimedAt)

	first.Entity.StockReturned()
	settled, err := repo.Update(ctx, first.Entity)
	require.NoError(t, err)
	assert.False(t, settled.Entity.StockReserved)
	assert.Nil(t, settled.Entity.ReleaseClaimedAt)
	assert.Equal(t, int64(3), settled.Entity.Version)

	require.NoError(t, second.Entity.Deliver(time.Now()))
	_, err = repo.Update(ctx, second.Entity)
	assert.ErrorIs(t, err, ports.ErrConflict)

	missing := newOrder(t, "ghost", "u-1", "p-1")
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ListAndPurchases(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, newOrder(t, "o-a", "u-1", "p-1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newOrder(t, "o-b", "u-2", "p-2"))
	require.NoError(t, err)

	mine, err := repo.List(ctx, ports.ListFilter{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "o-a", mine[0].Entity.ID)

	all, err := repo.List(ctx, ports.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bought, err := repo.HasDeliveredPurchase(ctx, "u-1", "p-1")
	require.NoError(t, err)
	assert.False(t, bought)

	current, err := repo.GetByID(ctx, "o-a")
	require.NoError(t, err)
	require.NoError(t, current.Entity.Deliver(time.Now()))
	_, err = repo.Update(ctx, current.Entity)
	require.NoError(t, err)

	bought, err = repo.HasDeliveredPurchase(ctx, "u-1", "p-1")
	require.NoError(t, err)
	assert.True(t, bought)

	bought, err = repo.HasDeliveredPurchase(ctx, "u-2", "p-1")
	require.NoError(t, err)
	assert.False(t, bought)
}

func TestIdempotencyStore_SaveAndConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	_ = NewRepository(db)
	store := NewIdempotencyStore(db)
	ctx := context.Background()

	saved, err := store.Save(ctx, ports.IdempotencyRecord{UserID: "u-1", Key: "k1", RequestHash: "h1", OrderID: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, "o-1", saved.OrderID)

	again, err := store.Save(ctx, ports.IdempotencyRecord{UserID: "u-1", Key: "k1", RequestHash: "h1", OrderID: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, "o-1", again.OrderID)

	existing, err := store.Save(ctx, ports.IdempotencyRecord{UserID: "u-1", Key: "k1", RequestHash: "h2", OrderID: "o-2"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, "h1", existing.RequestHash)

	missing, err := store.Get(ctx, "u-1", "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)

	theirs, err := store.Save(ctx, ports.IdempotencyRecord{UserID: "u-2", Key: "k1", RequestHash: "h2", OrderID: "o-2"})
	require.NoError(t, err, "another buyer may reuse the same key")
	assert.Equal(t, "u-2", theirs.UserID)

	mine, err := store.Get(ctx, "u-1", "k1")
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, "o-1", mine.OrderID)
}

func TestIdempotencyStore_PurgeOlderThan(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	_ = NewRepository(db)
	store := NewIdempotencyStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Save(ctx, ports.IdempotencyRecord{UserID: "u-1", Key: "stale", RequestHash: "h1", OrderID: "o-1", CreatedAt: now.Add(-48 * time.Hour)})
	require.NoError(t, err)
	_, err = store.Save(ctx, ports.IdempotencyRecord{UserID: "u-1", Key: "fresh", RequestHash: "h2", OrderID: "o-2", CreatedAt: now})
	require.NoError(t, err)

	removed, err := store.PurgeOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stale, err := store.Get(ctx, "u-1", "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)
	fresh, err := store.Get(ctx, "u-1", "fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}
