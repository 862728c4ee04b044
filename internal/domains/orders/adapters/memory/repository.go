package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

type storedOrder struct {
	order    *domain.Order
	metadata projection.Metadata
}

// Repository is an in-memory order persistence adapter with version checks.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]storedOrder
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{orders: map[string]storedOrder{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return nil, fmt.Errorf("%w: order %s already exists", ports.ErrConflict, order.ID)
	}
	clone := order.Clone()
	clone.Version = 1
	now := r.now()
	r.orders[clone.ID] = storedOrder{order: clone, metadata: projection.Stamped(now)}
	order.Version = clone.Version
	return r.project(r.orders[clone.ID]), nil
}

func (r *Repository) Update(_ context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.order.Version != order.Version {
		return nil, fmt.Errorf("%w: order %s is at version %d, update was based on %d",
			ports.ErrConflict, order.ID, current.order.Version, order.Version)
	}
	clone := order.Clone()
	clone.Version++
	current.order = clone
	current.metadata = current.metadata.Touch(r.now())
	r.orders[clone.ID] = current
	order.Version = clone.Version
	return r.project(current), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*projection.Projection[*domain.Order], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.project(stored), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*projection.Projection[*domain.Order], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*projection.Projection[*domain.Order], 0, len(r.orders))
	for _, stored := range r.orders {
		if filter.UserID != "" && stored.order.UserID != filter.UserID {
			continue
		}
		if filter.DeliveryStatus != "" && stored.order.DeliveryStatus != filter.DeliveryStatus {
			continue
		}
		list = append(list, r.project(stored))
	}
	sort.Slice(list, func(i, j int) bool {
		return projection.NewestFirst(list[i], list[j], orderIDLess)
	})
	return list, nil
}

func (r *Repository) HasDeliveredPurchase(_ context.Context, userID, productID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.orders {
		o := stored.order
		if o.OwnedBy(userID) && o.DeliveryStatus == domain.DeliveryDelivered && o.Contains(productID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) project(stored storedOrder) *projection.Projection[*domain.Order] {
	return projection.New(stored.order.Clone(), stored.metadata)
}

func orderIDLess(a, b *domain.Order) bool { return a.ID < b.ID }
