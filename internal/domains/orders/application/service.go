package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// releaseRetryWait is how long a stock release attempt may run before another one can be claimed.
const releaseRetryWait = time.Minute

// Service orchestrates the order lifecycle: reservation, persistence and status transitions.
type Service struct {
	repo          ports.Repository
	inventory     ports.Inventory
	idempotency   ports.IdempotencyStore
	confirmations ports.ConfirmationDispatcher
	now           func() time.Time
	newID         func() string
}

// Option customises the service.
type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key replay for PlaceOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithConfirmationDispatcher sets where order confirmations are sent.
func WithConfirmationDispatcher(d ports.ConfirmationDispatcher) Option {
	return func(s *Service) {
		s.confirmations = d
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, inventory ports.Inventory, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		inventory: inventory,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder validates the checkout, reserves every line and persists the order.
// Stock is reserved all-or-nothing; if persisting fails the reservation is released.
func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	if strings.TrimSpace(input.Actor.UserID) == "" {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, ErrMissingActor)
	}
	method, err := domain.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, mapError(err)
	}

	orderID := s.newID()
	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && s.idempotency != nil {
		fingerprint, err := FingerprintPlaceOrder(input)
		if err != nil {
			return nil, fmt.Errorf("fingerprint order: %w", err)
		}
		orderID, err = s.claimIdempotencyKey(ctx, input.Actor.UserID, key, fingerprint, orderID)
		if err != nil {
			return nil, err
		}
		existing, err := s.repo.GetByID(ctx, orderID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
	}

	order, err := domain.NewOrder(domain.Params{
		ID:            orderID,
		UserID:        input.Actor.UserID,
		Email:         input.Email,
		Items:         input.Items,
		Shipping:      input.Shipping,
		Delivery:      input.Delivery,
		PaymentMethod: method,
		Totals:        input.Totals,
	}, s.now())
	if err != nil {
		return nil, mapError(err)
	}

	lines := order.StockLines()
	if err := s.inventory.ReserveAll(ctx, lines); err != nil {
		return nil, mapError(err)
	}
	order.MarkReserved()

	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		if relErr := s.inventory.ReleaseAll(ctx, lines); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release stock for order %s: %w", order.ID, relErr))
		}
		if key != "" && errors.Is(err, ports.ErrConflict) {
			// A concurrent retry with the same key created the order first.
			if winner, getErr := s.repo.GetByID(ctx, order.ID); getErr == nil {
				return winner, nil
			}
		}
		return nil, mapError(err)
	}

	s.publish(ctx, order)
	return saved, nil
}

// GetOrder returns an order visible to the actor.
func (s *Service) GetOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	return s.loadAuthorized(ctx, ref)
}

// ListOrders returns every order for back-office use.
func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*ordertypes.OrderProjection, error) {
	if !input.Actor.IsAdmin {
		return nil, ErrForbidden
	}
	filter := ports.ListFilter{}
	if raw := strings.TrimSpace(input.DeliveryStatus); raw != "" {
		status, err := domain.ParseDeliveryStatus(raw)
		if err != nil {
			return nil, mapError(err)
		}
		filter.DeliveryStatus = status
	}
	return s.repo.List(ctx, filter)
}

// ListUserOrders returns the actor's own orders.
func (s *Service) ListUserOrders(ctx context.Context, actor ordertypes.Actor) ([]*ordertypes.OrderProjection, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, ErrMissingActor)
	}
	return s.repo.List(ctx, ports.ListFilter{UserID: actor.UserID})
}

// CancelOrder cancels a pending order and restores its stock exactly once.
// Cancelling an already cancelled order returns it unchanged, unless an earlier
// release failed and has been idle for releaseRetryWait, in which case it is retried.
func (s *Service) CancelOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	current, err := s.loadAuthorized(ctx, ref)
	if err != nil {
		return nil, err
	}
	order := current.Entity
	if order.DeliveryStatus == domain.DeliveryCancelled {
		if !order.ClaimStockRelease(s.now(), releaseRetryWait) {
			return current, nil
		}
		return s.commit(ctx, order, true, order.StockLines())
	}
	lines := order.StockLines()
	release, err := order.Cancel(s.now())
	if err != nil {
		return nil, mapError(err)
	}
	return s.commit(ctx, order, release, lines)
}

// UpdateOrder applies an admin delivery and/or payment status change.
func (s *Service) UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.OrderProjection, error) {
	if !input.Actor.IsAdmin {
		return nil, ErrForbidden
	}
	if input.DeliveryStatus == nil && input.PaymentStatus == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, ErrNothingToUpdate)
	}
	var delivery *domain.DeliveryStatus
	if input.DeliveryStatus != nil {
		status, err := domain.ParseDeliveryStatus(*input.DeliveryStatus)
		if err != nil {
			return nil, mapError(err)
		}
		delivery = &status
	}
	var payment *domain.PaymentStatus
	if input.PaymentStatus != nil {
		status, err := domain.ParsePaymentStatus(*input.PaymentStatus)
		if err != nil {
			return nil, mapError(err)
		}
		payment = &status
	}

	current, err := s.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	order := current.Entity
	lines := order.StockLines()
	now := s.now()

	// Settling first lets "delivered + paid" succeed on an unpaid online order.
	settleFirst := payment != nil && *payment == domain.PaymentPaid
	if settleFirst {
		if err := order.SetPaymentStatus(*payment, now); err != nil {
			return nil, mapError(err)
		}
	}
	release := false
	if delivery != nil {
		switch *delivery {
		case domain.DeliveryDelivered:
			err = order.Deliver(now)
		case domain.DeliveryCancelled:
			release, err = order.Cancel(now)
		case domain.DeliveryPending:
			err = order.Reopen()
		}
		if err != nil {
			return nil, mapError(err)
		}
	}
	if payment != nil && !settleFirst {
		if err := order.SetPaymentStatus(*payment, now); err != nil {
			return nil, mapError(err)
		}
	}
	return s.commit(ctx, order, release, lines)
}

// ReorderOrder re-reserves stock for a cancelled order and returns it to pending.
// On a stock shortfall the order stays cancelled. An order whose stock was never
// handed back keeps that reservation instead of taking a second one.
func (s *Service) ReorderOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	current, err := s.loadAuthorized(ctx, ref)
	if err != nil {
		return nil, err
	}
	order := current.Entity
	if order.DeliveryStatus != domain.DeliveryCancelled {
		return nil, mapError(domain.ErrNotCancelled)
	}
	lines := order.StockLines()
	if order.StockReserved && !order.ClaimStockRelease(s.now(), releaseRetryWait) {
		return nil, fmt.Errorf("%w: stock release for order %s is still in progress", ports.ErrConflict, order.ID)
	}
	reserved := !order.StockReserved
	if reserved {
		if err := s.inventory.ReserveAll(ctx, lines); err != nil {
			return nil, mapError(err)
		}
	}
	undo := func(err error) error {
		if !reserved {
			return err
		}
		if relErr := s.inventory.ReleaseAll(ctx, lines); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release stock for order %s: %w", order.ID, relErr))
		}
		return err
	}
	if err := order.Reactivate(s.now()); err != nil {
		return nil, mapError(undo(err))
	}
	saved, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, mapError(undo(err))
	}
	order.ClearEvents()
	return saved, nil
}

// PayOrder marks the order paid after the gateway confirmed the payment.
func (s *Service) PayOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	current, err := s.loadAuthorized(ctx, ref)
	if err != nil {
		return nil, err
	}
	order := current.Entity
	if order.PaymentStatus == domain.PaymentPaid {
		return current, nil
	}
	if err := order.MarkPaid(s.now()); err != nil {
		return nil, mapError(err)
	}
	return s.commit(ctx, order, false, nil)
}

// commit persists a transitioned order and, once the write won, hands back its stock.
// Persisting first means a lost version race never releases stock twice. The order
// keeps StockReserved until a second versioned write confirms the release, so a
// failed release leaves the order retryable through CancelOrder.
func (s *Service) commit(ctx context.Context, order *domain.Order, release bool, lines []domain.StockLine) (*ordertypes.OrderProjection, error) {
	saved, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	order.ClearEvents()
	if !release {
		return saved, nil
	}
	if err := s.inventory.ReleaseAll(ctx, lines); err != nil {
		return nil, fmt.Errorf("release stock for order %s: %w", order.ID, err)
	}
	order.StockReturned()
	settled, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("record stock release for order %s: %w", order.ID, mapError(err))
	}
	return settled, nil
}

func (s *Service) loadAuthorized(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	if strings.TrimSpace(ref.Actor.UserID) == "" && !ref.Actor.IsAdmin {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, ErrMissingActor)
	}
	current, err := s.repo.GetByID(ctx, ref.OrderID)
	if err != nil {
		return nil, err
	}
	if !ref.Actor.IsAdmin && !current.Entity.OwnedBy(ref.Actor.UserID) {
		return nil, ErrForbidden
	}
	return current, nil
}

// claimIdempotencyKey binds the buyer's key to orderID, or returns the order id an earlier identical request claimed.
func (s *Service) claimIdempotencyKey(ctx context.Context, userID, key, fingerprint, orderID string) (string, error) {
	existing, err := s.idempotency.Get(ctx, userID, key)
	if err != nil {
		return "", fmt.Errorf("load idempotency key: %w", err)
	}
	if existing != nil {
		if existing.RequestHash != fingerprint {
			return "", mapError(ports.ErrIdempotencyConflict)
		}
		return existing.OrderID, nil
	}
	stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{UserID: userID, Key: key, RequestHash: fingerprint, OrderID: orderID})
	if err != nil {
		if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil && stored.RequestHash == fingerprint {
			return stored.OrderID, nil
		}
		if errors.Is(err, ports.ErrIdempotencyConflict) {
			return "", mapError(err)
		}
		return "", fmt.Errorf("save idempotency key: %w", err)
	}
	return stored.OrderID, nil
}

// publish forwards placement events to the confirmation dispatcher.
// Dispatch failures never fail the order; dispatchers log their own errors.
func (s *Service) publish(ctx context.Context, order *domain.Order) {
	defer order.ClearEvents()
	if s.confirmations == nil {
		return
	}
	for _, event := range order.Events() {
		if _, ok := event.(domain.OrderPlaced); ok {
			_ = s.confirmations.Dispatch(ctx, BuildConfirmation(order))
		}
	}
}

// BuildConfirmation renders the customer-facing summary of an order.
func BuildConfirmation(order *domain.Order) ports.Confirmation {
	items := make([]ports.ConfirmationItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ports.ConfirmationItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(0),
			Discount:  item.Discount,
		})
	}
	address := strings.Join(nonEmpty(order.Shipping.Address, order.Shipping.City, order.Shipping.Country), ", ")
	return ports.Confirmation{
		OrderID:       order.ID,
		Email:         order.Email,
		CustomerName:  order.Shipping.FullName,
		Address:       address,
		Phone:         order.Shipping.Phone,
		PaymentMethod: string(order.PaymentMethod),
		Items:         items,
		Total:         order.Totals.Total.StringFixed(0),
		PlacedAt:      placedAt(order),
	}
}

func placedAt(order *domain.Order) time.Time {
	for _, event := range order.Events() {
		if placed, ok := event.(domain.OrderPlaced); ok {
			return placed.OccurredAt()
		}
	}
	return time.Now()
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var _ ports.Service = (*Service)(nil)
