package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func validParams(method PaymentMethod) Params {
	return Params{
		ID:     "o-1",
		UserID: "u-1",
		Email:  "buyer@example.com",
		Items: []LineItem{
			{ProductID: "p-1", Name: "Lamp", Quantity: 2, UnitPrice: decimal.NewFromInt(100000)},
		},
		Shipping:      ShippingAddress{FullName: "Ana", Address: "1 Main", City: "Hanoi", Phone: "0900"},
		Delivery:      "standard",
		PaymentMethod: method,
		Totals:        Totals{Items: decimal.NewFromInt(200000), Total: decimal.NewFromInt(200000)},
	}
}

func mustOrder(t *testing.T, method PaymentMethod) *Order {
	t.Helper()
	order, err := NewOrder(validParams(method), now)
	require.NoError(t, err)
	order.MarkReserved()
	return order
}

func TestNewOrder_InitialPaymentState(t *testing.T) {
	cod := mustOrder(t, PaymentCashOnDelivery)
	assert.Equal(t, DeliveryPending, cod.DeliveryStatus)
	assert.Equal(t, PaymentUnpaid, cod.PaymentStatus)
	assert.Nil(t, cod.PaidAt)

	online := mustOrder(t, PaymentOnline)
	assert.Equal(t, PaymentPaid, online.PaymentStatus)
	require.NotNil(t, online.PaidAt)
	assert.Equal(t, now, *online.PaidAt)

	events := online.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "orders.order.placed", events[0].EventName())
}

func TestNewOrder_Validation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Params)
		want   error
	}{
		"bad email":        {func(p *Params) { p.Email = "nope" }, ErrInvalidEmail},
		"no items":         {func(p *Params) { p.Items = nil }, ErrNoItems},
		"zero quantity":    {func(p *Params) { p.Items[0].Quantity = 0 }, ErrInvalidItem},
		"missing product":  {func(p *Params) { p.Items[0].ProductID = " " }, ErrInvalidItem},
		"unknown method":   {func(p *Params) { p.PaymentMethod = "barter" }, ErrInvalidPaymentMethod},
		"negative total":   {func(p *Params) { p.Totals.Total = decimal.NewFromInt(-1) }, ErrInvalidTotals},
		"missing city":     {func(p *Params) { p.Shipping.City = "" }, ErrInvalidShipping},
		"missing delivery": {func(p *Params) { p.Delivery = "" }, ErrMissingDelivery},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			params := validParams(PaymentCashOnDelivery)
			params.Items = append([]LineItem(nil), params.Items...)
			tc.mutate(&params)
			_, err := NewOrder(params, now)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParsePaymentMethod(t *testing.T) {
	for raw, want := range map[string]PaymentMethod{"COD": PaymentCashOnDelivery, "cash": PaymentCashOnDelivery, "Stripe": PaymentOnline, "online": PaymentOnline} {
		got, err := ParsePaymentMethod(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePaymentMethod("paypal")
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestDeliver_SettlesCashOnDelivery(t *testing.T) {
	order := mustOrder(t, PaymentCashOnDelivery)
	later := now.Add(time.Hour)
	require.NoError(t, order.Deliver(later))
	assert.Equal(t, DeliveryDelivered, order.DeliveryStatus)
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
	assert.Equal(t, later, *order.PaidAt)
	assert.Equal(t, later, *order.DeliveredAt)
}

func TestDeliver_KeepsOnlinePaidTimestamp(t *testing.T) {
	order := mustOrder(t, PaymentOnline)
	require.NoError(t, order.Deliver(now.Add(time.Hour)))
	assert.Equal(t, now, *order.PaidAt)
}

func TestCancel_ReleasesStockOnce(t *testing.T) {
	order := mustOrder(t, PaymentCashOnDelivery)

	release, err := order.Cancel(now)
	require.NoError(t, err)
	assert.True(t, release)
	assert.True(t, order.StockReserved, "stock stays held until the release is confirmed")
	assert.Equal(t, DeliveryCancelled, order.DeliveryStatus)
	assert.Equal(t, PaymentUnpaid, order.PaymentStatus)

	release, err = order.Cancel(now)
	require.NoError(t, err)
	assert.False(t, release, "a second cancel never starts another release")

	order.StockReturned()
	assert.False(t, order.StockReserved)
	assert.Nil(t, order.ReleaseClaimedAt)
}

func TestClaimStockRelease_WaitsOutInFlightAttempt(t *testing.T) {
	order := mustOrder(t, PaymentCashOnDelivery)
	assert.False(t, order.ClaimStockRelease(now, time.Minute), "pending orders have nothing to release")

	_, err := order.Cancel(now)
	require.NoError(t, err)
	assert.False(t, order.ClaimStockRelease(now.Add(30*time.Second), time.Minute))

	later := now.Add(2 * time.Minute)
	require.True(t, order.ClaimStockRelease(later, time.Minute))
	assert.Equal(t, later, *order.ReleaseClaimedAt)
	assert.False(t, order.ClaimStockRelease(later, time.Minute))

	order.StockReturned()
	assert.False(t, order.ClaimStockRelease(later.Add(time.Hour), time.Minute))
}

func TestStockReturned_IgnoredOutsideCancellation(t *testing.T) {
	order := mustOrder(t, PaymentCashOnDelivery)
	order.StockReturned()
	assert.True(t, order.StockReserved)
}

func TestCancel_RefundsOnlinePayment(t *testing.T) {
	order := mustOrder(t, PaymentOnline)
	_, err := order.Cancel(now)
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, order.PaymentStatus)
}

func TestCancel_DeliveredRejected(t *testing.T) {
	order := mustOrder(t, PaymentCashOnDelivery)
	require.NoError(t, order.Deliver(now))
	release, err := order.Cancel(now)
	require.ErrorIs(t, err, ErrCancelDelivered)
	assert.False(t, release)
	assert.True(t, order.StockReserved)
}

func TestReactivate_ResetsPaymentPerMethod(t *testing.T) {
	cod := mustOrder(t, PaymentCashOnDelivery)
	_, err := cod.Cancel(now)
	require.NoError(t, err)
	require.NoError(t, cod.Reactivate(now.Add(time.Minute)))
	assert.Equal(t, DeliveryPending, cod.DeliveryStatus)
	assert.Equal(t, PaymentUnpaid, cod.PaymentStatus)
	assert.Nil(t, cod.CancelledAt)
	assert.True(t, cod.StockReserved)

	online := mustOrder(t, PaymentOnline)
	_, err = online.Cancel(now)
	require.NoError(t, err)
	require.NoError(t, online.Reactivate(now.Add(time.Minute)))
	assert.Equal(t, PaymentPaid, online.PaymentStatus)

	require.ErrorIs(t, online.Reactivate(now), ErrNotCancelled)
}

func TestSetPaymentStatus_RefundRules(t *testing.T) {
	cod := mustOrder(t, PaymentCashOnDelivery)
	require.NoError(t, cod.MarkPaid(now))
	require.ErrorIs(t, cod.SetPaymentStatus(PaymentRefunded, now), ErrRefundNotAllowed)

	online := mustOrder(t, PaymentOnline)
	require.NoError(t, online.SetPaymentStatus(PaymentRefunded, now))
	assert.Equal(t, PaymentRefunded, online.PaymentStatus)

	delivered := mustOrder(t, PaymentOnline)
	require.NoError(t, delivered.Deliver(now))
	require.ErrorIs(t, delivered.SetPaymentStatus(PaymentRefunded, now), ErrDeliveredNeedsPaid)
	require.ErrorIs(t, delivered.SetPaymentStatus(PaymentUnpaid, now), ErrDeliveredNeedsPaid)
}

func TestReopen(t *testing.T) {
	order := mustOrder(t, PaymentCashOnDelivery)
	require.NoError(t, order.Deliver(now))
	require.NoError(t, order.Reopen())
	assert.Equal(t, DeliveryPending, order.DeliveryStatus)
	assert.Nil(t, order.DeliveredAt)

	_, err := order.Cancel(now)
	require.NoError(t, err)
	require.ErrorIs(t, order.Reopen(), ErrReactivateViaReorder)
}

func TestClone_DropsEvents(t *testing.T) {
	order := mustOrder(t, PaymentOnline)
	clone := order.Clone()
	assert.Empty(t, clone.Events())
	clone.Items[0].Quantity = 99
	assert.Equal(t, 2, order.Items[0].Quantity)
}
