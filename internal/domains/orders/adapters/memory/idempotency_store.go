package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

type checkoutKey struct {
	userID string
	key    string
}

// IdempotencyStore keeps checkout keys per buyer in a map guarded by a mutex.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[checkoutKey]ports.IdempotencyRecord
	now  func() time.Time
}

// IdempotencyOption customises the in-memory store.
type IdempotencyOption func(*IdempotencyStore)

// WithIdempotencyClock overrides the time source used to stamp new keys.
func WithIdempotencyClock(now func() time.Time) IdempotencyOption {
	return func(s *IdempotencyStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIdempotencyStore constructs an empty store.
func NewIdempotencyStore(opts ...IdempotencyOption) *IdempotencyStore {
	s := &IdempotencyStore{keys: map[checkoutKey]ports.IdempotencyRecord{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IdempotencyStore) Get(_ context.Context, userID, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.keys[checkoutKey{userID: userID, key: key}]; ok {
		return &record, nil
	}
	return nil, nil
}

// Save claims record.Key for record.UserID. A second claim for the same order and fingerprint
// replays the first; anything else is ErrIdempotencyConflict alongside the stored record.
func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := checkoutKey{userID: record.UserID, key: record.Key}
	if stored, ok := s.keys[id]; ok {
		if stored.RequestHash == record.RequestHash && stored.OrderID == record.OrderID {
			return &stored, nil
		}
		return &stored, ports.ErrIdempotencyConflict
	}
	now := s.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.keys[id] = record
	return &record, nil
}

// PurgeOlderThan drops keys created before cutoff.
func (s *IdempotencyStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, record := range s.keys {
		if record.CreatedAt.Before(cutoff) {
			delete(s.keys, id)
			removed++
		}
	}
	return removed, nil
}
