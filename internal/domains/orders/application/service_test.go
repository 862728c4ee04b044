package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/inventory"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/projection"
)

var (
	buyer = ordertypes.Actor{UserID: "u-1"}
	admin = ordertypes.Actor{UserID: "admin", IsAdmin: true}
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []ports.Confirmation
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, c ports.Confirmation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, c)
	return d.err
}

type failingCreateRepo struct {
	*memory.Repository
}

func (failingCreateRepo) Create(context.Context, *domain.Order) (*projection.Projection[*domain.Order], error) {
	return nil, errors.New("disk full")
}

// flakyInventory fails ReleaseAll while failRelease is set.
type flakyInventory struct {
	ports.Inventory
	failRelease atomic.Bool
}

func (f *flakyInventory) ReleaseAll(ctx context.Context, lines []domain.StockLine) error {
	if f.failRelease.Load() {
		return errors.New("ledger unavailable")
	}
	return f.Inventory.ReleaseAll(ctx, lines)
}

// failingUpdateRepo rejects every Update.
type failingUpdateRepo struct {
	*memory.Repository
}

func (failingUpdateRepo) Update(context.Context, *domain.Order) (*projection.Projection[*domain.Order], error) {
	return nil, errors.New("write timeout")
}

type fixture struct {
	svc        *Service
	catalog    *catalogmemory.Repository
	orders     *memory.Repository
	dispatcher *recordingDispatcher
}

func newFixture(t *testing.T, stock map[string]int, opts ...Option) *fixture {
	t.Helper()
	catalog := catalogmemory.NewRepository()
	for id, qty := range stock {
		p, err := catalogdomain.NewProduct(id, "product "+id, decimal.NewFromInt(100000), qty, 0)
		require.NoError(t, err)
		_, err = catalog.Save(context.Background(), p)
		require.NoError(t, err)
	}
	orders := memory.NewRepository()
	dispatcher := &recordingDispatcher{}
	var seq atomic.Int64
	base := []Option{
		WithConfirmationDispatcher(dispatcher),
		WithIDGenerator(func() string { return fmt.Sprintf("order-%d", seq.Add(1)) }),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }),
	}
	svc := NewService(orders, inventory.NewLedger(catalog), append(base, opts...)...)
	return &fixture{svc: svc, catalog: catalog, orders: orders, dispatcher: dispatcher}
}

func (f *fixture) counters(t *testing.T, id string) (int, int) {
	t.Helper()
	p, err := f.catalog.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock, p.Sold
}

func checkout(method string, lines ...domain.LineItem) ordertypes.PlaceOrderInput {
	return ordertypes.PlaceOrderInput{
		Actor:         buyer,
		Email:         "buyer@example.com",
		Items:         lines,
		Shipping:      domain.ShippingAddress{FullName: "Ana", Address: "1 Main", City: "Hanoi", Phone: "0900"},
		Delivery:      "standard",
		PaymentMethod: method,
		Totals:        domain.Totals{Items: decimal.NewFromInt(200000), Total: decimal.NewFromInt(200000)},
	}
}

func line(productID string, qty int) domain.LineItem {
	return domain.LineItem{ProductID: productID, Name: "item " + productID, Quantity: qty, UnitPrice: decimal.NewFromInt(100000)}
}

func TestPlaceOrder_ReservesStockAndDispatchesConfirmation(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})

	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 2)))
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryPending, placed.Entity.DeliveryStatus)
	assert.Equal(t, domain.PaymentUnpaid, placed.Entity.PaymentStatus)
	assert.True(t, placed.Entity.StockReserved)

	stock, sold := f.counters(t, "x")
	assert.Equal(t, 3, stock)
	assert.Equal(t, 2, sold)

	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, placed.Entity.ID, f.dispatcher.sent[0].OrderID)
	assert.Equal(t, "buyer@example.com", f.dispatcher.sent[0].Email)
}

func TestPlaceOrder_OnlineStartsPaid(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("Stripe", line("x", 1)))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOnline, placed.Entity.PaymentMethod)
	assert.Equal(t, domain.PaymentPaid, placed.Entity.PaymentStatus)
	assert.NotNil(t, placed.Entity.PaidAt)
}

func TestPlaceOrder_OutOfStockIsAllOrNothing(t *testing.T) {
	f := newFixture(t, map[string]int{"a": 5, "b": 1})

	_, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("a", 2), line("b", 2)))
	require.ErrorIs(t, err, ErrOutOfStock)

	for _, id := range []string{"a", "b"} {
		_, sold := f.counters(t, id)
		assert.Zero(t, sold, id)
	}
	stock, _ := f.counters(t, "a")
	assert.Equal(t, 5, stock)
	assert.Empty(t, f.dispatcher.sent)

	list, err := f.svc.ListOrders(context.Background(), ordertypes.ListOrdersInput{Actor: admin})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})

	input := checkout("cod", line("x", 1))
	input.PaymentMethod = "barter"
	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)

	input = checkout("cod", line("x", 1))
	input.Shipping.City = ""
	_, err = f.svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidShipping)

	_, err = f.svc.PlaceOrder(context.Background(), checkout("cod", line("ghost", 1)))
	require.ErrorIs(t, err, ErrInvalidInput)

	input = checkout("cod", line("x", 1))
	input.Actor = ordertypes.Actor{}
	_, err = f.svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrForbidden)

	stock, _ := f.counters(t, "x")
	assert.Equal(t, 5, stock)
}

func TestPlaceOrder_ReleasesStockWhenSaveFails(t *testing.T) {
	catalog := catalogmemory.NewRepository()
	p, err := catalogdomain.NewProduct("x", "x", decimal.NewFromInt(1), 5, 0)
	require.NoError(t, err)
	_, err = catalog.Save(context.Background(), p)
	require.NoError(t, err)

	svc := NewService(failingCreateRepo{memory.NewRepository()}, inventory.NewLedger(catalog))
	_, err = svc.PlaceOrder(context.Background(), checkout("cod", line("x", 3)))
	require.Error(t, err)

	got, err := catalog.GetByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, 0, got.Sold)
}

func TestPlaceOrder_DispatchFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	f.dispatcher.err = errors.New("smtp down")

	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 1)))
	require.NoError(t, err)
	assert.NotEmpty(t, placed.Entity.ID)
}

func TestPlaceOrder_IdempotencyKeyReplays(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5}, WithIdempotencyStore(memory.NewIdempotencyStore()))

	input := checkout("cod", line("x", 2))
	input.IdempotencyKey = "retry-1"
	first, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)

	second, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.Entity.ID, second.Entity.ID)

	stock, sold := f.counters(t, "x")
	assert.Equal(t, 3, stock)
	assert.Equal(t, 2, sold)
	assert.Len(t, f.dispatcher.sent, 1)

	changed := input
	changed.Items = []domain.LineItem{line("x", 1)}
	_, err = f.svc.PlaceOrder(context.Background(), changed)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestPlaceOrder_IdempotencyKeysDoNotCrossBuyers(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5}, WithIdempotencyStore(memory.NewIdempotencyStore()))

	input := checkout("cod", line("x", 1))
	input.IdempotencyKey = "cart-42"
	first, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)

	input.Actor = ordertypes.Actor{UserID: "u-2"}
	second, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.NotEqual(t, first.Entity.ID, second.Entity.ID)
	assert.Equal(t, "u-2", second.Entity.UserID)

	stock, sold := f.counters(t, "x")
	assert.Equal(t, 3, stock)
	assert.Equal(t, 2, sold)
}

func TestPlaceOrder_IdempotencyKeyRetriesAfterFailure(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 1}, WithIdempotencyStore(memory.NewIdempotencyStore()))

	input := checkout("cod", line("x", 2))
	input.IdempotencyKey = "retry-2"
	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrOutOfStock)

	p, err := f.catalog.GetByID(context.Background(), "x")
	require.NoError(t, err)
	p.Stock = 5
	_, err = f.catalog.Save(context.Background(), p)
	require.NoError(t, err)

	placed, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "order-1", placed.Entity.ID)
}

func TestCancelOrder_RestoresStockExactlyOnce(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 2)))
	require.NoError(t, err)

	ref := ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer}
	cancelled, err := f.svc.CancelOrder(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryCancelled, cancelled.Entity.DeliveryStatus)
	assert.False(t, cancelled.Entity.StockReserved)

	stock, sold := f.counters(t, "x")
	assert.Equal(t, 5, stock)
	assert.Equal(t, 0, sold)

	_, err = f.svc.CancelOrder(context.Background(), ref)
	require.NoError(t, err)
	stock, sold = f.counters(t, "x")
	assert.Equal(t, 5, stock)
	assert.Equal(t, 0, sold)
}

func TestCancelOrder_ConcurrentCancelsReleaseOnce(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 2)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.CancelOrder(context.Background(), ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer})
		}()
	}
	wg.Wait()

	stock, sold := f.counters(t, "x")
	assert.Equal(t, 5, stock)
	assert.Equal(t, 0, sold)
}

func TestCancelOrder_RetriesFailedRelease(t *testing.T) {
	catalog := catalogmemory.NewRepository()
	p, err := catalogdomain.NewProduct("x", "product x", decimal.NewFromInt(100000), 5, 0)
	require.NoError(t, err)
	_, err = catalog.Save(context.Background(), p)
	require.NoError(t, err)

	ledger := &flakyInventory{Inventory: inventory.NewLedger(catalog)}
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewRepository(), ledger, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, checkout("cod", line("x", 2)))
	require.NoError(t, err)
	ref := ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer}

	ledger.failRelease.Store(true)
	_, err = svc.CancelOrder(ctx, ref)
	require.Error(t, err)

	stuck, err := svc.GetOrder(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryCancelled, stuck.Entity.DeliveryStatus)
	assert.True(t, stuck.Entity.StockReserved, "stock stays owed after a failed release")

	ledger.failRelease.Store(false)
	unchanged, err := svc.CancelOrder(ctx, ref)
	require.NoError(t, err)
	assert.True(t, unchanged.Entity.StockReserved, "a retry waits for the previous attempt to go idle")

	clock = clock.Add(2 * releaseRetryWait)
	retried, err := svc.CancelOrder(ctx, ref)
	require.NoError(t, err)
	assert.False(t, retried.Entity.StockReserved)

	restored, err := catalog.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Stock)
	assert.Equal(t, 0, restored.Sold)

	_, err = svc.CancelOrder(ctx, ref)
	require.NoError(t, err)
	restored, err = catalog.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Stock, "a settled order never releases twice")
}

func TestReorderOrder_ReusesStockStillHeld(t *testing.T) {
	catalog := catalogmemory.NewRepository()
	p, err := catalogdomain.NewProduct("x", "product x", decimal.NewFromInt(100000), 2, 0)
	require.NoError(t, err)
	_, err = catalog.Save(context.Background(), p)
	require.NoError(t, err)

	ledger := &flakyInventory{Inventory: inventory.NewLedger(catalog)}
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewRepository(), ledger, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, checkout("cod", line("x", 2)))
	require.NoError(t, err)
	ref := ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer}
	ledger.failRelease.Store(true)
	_, err = svc.CancelOrder(ctx, ref)
	require.Error(t, err)

	_, err = svc.ReorderOrder(ctx, ref)
	require.ErrorIs(t, err, ports.ErrConflict)

	clock = clock.Add(2 * releaseRetryWait)
	reordered, err := svc.ReorderOrder(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryPending, reordered.Entity.DeliveryStatus)
	assert.True(t, reordered.Entity.StockReserved)

	held, err := catalog.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 0, held.Stock)
	assert.Equal(t, 2, held.Sold)
}

func TestReorderOrder_ReportsReleaseFailureWhenSaveFails(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 2)))
	require.NoError(t, err)
	ref := ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer}
	_, err = f.svc.CancelOrder(context.Background(), ref)
	require.NoError(t, err)

	ledger := &flakyInventory{Inventory: inventory.NewLedger(f.catalog)}
	ledger.failRelease.Store(true)
	svc := NewService(failingUpdateRepo{f.orders}, ledger)

	_, err = svc.ReorderOrder(context.Background(), ref)
	require.Error(t, err)
	assert.ErrorContains(t, err, "write timeout")
	assert.ErrorContains(t, err, "ledger unavailable")
}

func TestCancelOrder_OwnershipAndDelivered(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 1)))
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(context.Background(), ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: ordertypes.Actor{UserID: "someone"}})
	require.ErrorIs(t, err, ErrForbidden)

	delivered := string(domain.DeliveryDelivered)
	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: placed.Entity.ID, Actor: admin, DeliveryStatus: &delivered})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(context.Background(), ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: admin})
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, err, domain.ErrCancelDelivered)

	_, sold := f.counters(t, "x")
	assert.Equal(t, 1, sold)
}

func TestReorderOrder_RevalidatesStock(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 2})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 2)))
	require.NoError(t, err)
	ref := ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer}
	_, err = f.svc.CancelOrder(context.Background(), ref)
	require.NoError(t, err)

	other := checkout("cod", line("x", 1))
	other.Actor = ordertypes.Actor{UserID: "u-2"}
	_, err = f.svc.PlaceOrder(context.Background(), other)
	require.NoError(t, err)

	_, err = f.svc.ReorderOrder(context.Background(), ref)
	require.ErrorIs(t, err, ErrOutOfStock)

	current, err := f.svc.GetOrder(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryCancelled, current.Entity.DeliveryStatus)
	stock, sold := f.counters(t, "x")
	assert.Equal(t, 1, stock)
	assert.Equal(t, 1, sold)
}

func TestReorderOrder_ReactivatesCancelledOrder(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("online", line("x", 2)))
	require.NoError(t, err)
	ref := ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer}

	cancelled, err := f.svc.CancelOrder(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, cancelled.Entity.PaymentStatus)

	reordered, err := f.svc.ReorderOrder(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryPending, reordered.Entity.DeliveryStatus)
	assert.Equal(t, domain.PaymentPaid, reordered.Entity.PaymentStatus)
	assert.Nil(t, reordered.Entity.CancelledAt)
	assert.True(t, reordered.Entity.StockReserved)

	stock, sold := f.counters(t, "x")
	assert.Equal(t, 3, stock)
	assert.Equal(t, 2, sold)

	_, err = f.svc.ReorderOrder(context.Background(), ref)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateOrder_AdminTransitions(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 2)))
	require.NoError(t, err)
	id := placed.Entity.ID

	delivered := string(domain.DeliveryDelivered)
	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: id, Actor: buyer, DeliveryStatus: &delivered})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: id, Actor: admin})
	require.ErrorIs(t, err, ErrInvalidInput)

	bogus := "shipped"
	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: id, Actor: admin, DeliveryStatus: &bogus})
	require.ErrorIs(t, err, ErrInvalidInput)

	updated, err := f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: id, Actor: admin, DeliveryStatus: &delivered})
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryDelivered, updated.Entity.DeliveryStatus)
	assert.Equal(t, domain.PaymentPaid, updated.Entity.PaymentStatus)

	unpaid := string(domain.PaymentUnpaid)
	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: id, Actor: admin, PaymentStatus: &unpaid})
	require.ErrorIs(t, err, ErrInvalidTransition)

	pending := string(domain.DeliveryPending)
	cancelled := string(domain.DeliveryCancelled)
	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: id, Actor: admin, DeliveryStatus: &pending})
	require.NoError(t, err)
	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: id, Actor: admin, DeliveryStatus: &cancelled})
	require.NoError(t, err)

	stock, sold := f.counters(t, "x")
	assert.Equal(t, 5, stock)
	assert.Equal(t, 0, sold)
}

func TestUpdateOrder_RefundOnlyForPaidOnline(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	cod, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 1)))
	require.NoError(t, err)
	online, err := f.svc.PlaceOrder(context.Background(), checkout("online", line("x", 1)))
	require.NoError(t, err)

	refunded := string(domain.PaymentRefunded)
	_, err = f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: cod.Entity.ID, Actor: admin, PaymentStatus: &refunded})
	require.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := f.svc.UpdateOrder(context.Background(), ordertypes.UpdateOrderInput{OrderID: online.Entity.ID, Actor: admin, PaymentStatus: &refunded})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, updated.Entity.PaymentStatus)
}

func TestPayOrder_MarksPaid(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	placed, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 1)))
	require.NoError(t, err)

	paid, err := f.svc.PayOrder(context.Background(), ordertypes.OrderRef{OrderID: placed.Entity.ID, Actor: buyer})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, paid.Entity.PaymentStatus)
	assert.Equal(t, int64(2), paid.Entity.Version)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t, map[string]int{"x": 5})
	_, err := f.svc.PlaceOrder(context.Background(), checkout("cod", line("x", 1)))
	require.NoError(t, err)
	other := checkout("cod", line("x", 1))
	other.Actor = ordertypes.Actor{UserID: "u-2"}
	_, err = f.svc.PlaceOrder(context.Background(), other)
	require.NoError(t, err)

	_, err = f.svc.ListOrders(context.Background(), ordertypes.ListOrdersInput{Actor: buyer})
	require.ErrorIs(t, err, ErrForbidden)

	all, err := f.svc.ListOrders(context.Background(), ordertypes.ListOrdersInput{Actor: admin})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.ListUserOrders(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "u-1", mine[0].Entity.UserID)

	_, err = f.svc.GetOrder(context.Background(), ordertypes.OrderRef{OrderID: "missing", Actor: admin})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestFingerprintPlaceOrder_IgnoresKeyAndDecimalScale(t *testing.T) {
	a := checkout("cash", line("x", 1))
	a.IdempotencyKey = "one"
	b := checkout("cod", line("x", 1))
	b.IdempotencyKey = "two"
	b.Totals.Total = decimal.RequireFromString("200000.00")

	fa, err := FingerprintPlaceOrder(a)
	require.NoError(t, err)
	fb, err := FingerprintPlaceOrder(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)

	b.Items[0].Quantity = 2
	fc, err := FingerprintPlaceOrder(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}
