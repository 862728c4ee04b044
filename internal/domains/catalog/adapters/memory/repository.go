package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

var (
	_ ports.Repository = (*Repository)(nil)
	_ ports.Ledger     = (*Repository)(nil)
)

// Repository is an in-memory product store that doubles as the inventory ledger.
type Repository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewRepository() *Repository {
	return &Repository{products: map[string]*domain.Product{}}
}

func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := product.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	clone.RecomputeRating()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTakenLocked(clone.Name, clone.ID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateName, clone.Name)
	}
	r.products[clone.ID] = clone
	return clone.Clone(), nil
}

// Update applies fn to a working copy and commits it only when it is valid and its name is free.
func (r *Repository) Update(_ context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = id
	if err := working.Validate(); err != nil {
		return nil, err
	}
	if r.nameTakenLocked(working.Name, id) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateName, working.Name)
	}
	r.products[id] = working
	return working.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, ids ...string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := r.products[id]; ok {
			delete(r.products, id)
			removed++
		}
	}
	return removed, nil
}

func (r *Repository) ListTypes(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, product := range r.products {
		if product.Type != "" {
			seen[product.Type] = struct{}{}
		}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds, nil
}

func (r *Repository) nameTakenLocked(name, exceptID string) bool {
	for id, product := range r.products {
		if id != exceptID && product.SameName(name) {
			return true
		}
	}
	return false
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		list = append(list, product.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// MutateComments runs fn against a working copy under the write lock and commits it only on success.
func (r *Repository) MutateComments(_ context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.RecomputeRating()
	r.products[id] = working
	return working.Clone(), nil
}

func (r *Repository) Reserve(ctx context.Context, productID string, qty int) error {
	return r.ReserveAll(ctx, []ports.StockLine{{ProductID: productID, Quantity: qty}})
}

func (r *Repository) Release(ctx context.Context, productID string, qty int) error {
	return r.ReleaseAll(ctx, []ports.StockLine{{ProductID: productID, Quantity: qty}})
}

// ReserveAll checks every line before mutating any product.
func (r *Repository) ReserveAll(_ context.Context, lines []ports.StockLine) error {
	merged, err := ports.NormalizeLines(lines)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range merged {
		product, ok := r.products[line.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", ports.ErrNotFound, line.ProductID)
		}
		if product.Stock < line.Quantity {
			return fmt.Errorf("%w: product %s has %d, requested %d", domain.ErrOutOfStock, line.ProductID, product.Stock, line.Quantity)
		}
	}
	for _, line := range merged {
		_ = r.products[line.ProductID].Reserve(line.Quantity)
	}
	return nil
}

func (r *Repository) ReleaseAll(_ context.Context, lines []ports.StockLine) error {
	merged, err := ports.NormalizeLines(lines)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range merged {
		if product, ok := r.products[line.ProductID]; ok {
			_ = product.Release(line.Quantity)
		}
	}
	return nil
}
