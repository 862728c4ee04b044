package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord associates a buyer's Idempotency-Key with the order it created.
// Keys are scoped per user, so two buyers may pick the same key independently.
type IdempotencyRecord struct {
	UserID      string
	Key         string
	RequestHash string
	OrderID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists idempotency keys so retried order placements can be replayed safely.
type IdempotencyStore interface {
	// Get returns the record userID stored under key, or nil when unknown.
	Get(ctx context.Context, userID, key string) (*IdempotencyRecord, error)
	// Save persists the record; if the user's key already exists with the same hash and order, the stored record is returned.
	// When the key exists but points to a different request or order, ErrIdempotencyConflict is returned with the stored record.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
