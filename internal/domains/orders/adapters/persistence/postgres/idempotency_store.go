package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// DefaultIdempotencyTTL bounds how long a checkout key is honoured before it may be purged.
const DefaultIdempotencyTTL = 7 * 24 * time.Hour

// IdempotencyStore persists checkout keys in PostgreSQL, one namespace per buyer.
type IdempotencyStore struct {
	db *gorm.DB
}

// NewIdempotencyStore wires a PostgreSQL-backed idempotency store.
func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Get loads the buyer's record for key, returning nil when absent.
func (s *IdempotencyStore) Get(ctx context.Context, userID, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres idempotency store not configured")
	}
	var row checkoutKeyRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toPort(), nil
}

// Save claims the buyer's key with an insert that ignores clashes, then compares against
// whatever row holds the key. A mismatched hash or order is ErrIdempotencyConflict.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres idempotency store not configured")
	}
	row := newCheckoutKeyRecord(record)
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "key"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return row.toPort(), nil
	}

	stored, err := s.Get(ctx, record.UserID, record.Key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("idempotency key vanished while claiming it")
	}
	if stored.RequestHash != record.RequestHash || stored.OrderID != record.OrderID {
		return stored, ports.ErrIdempotencyConflict
	}
	return stored, nil
}

// PurgeOlderThan deletes keys created before cutoff and reports how many were removed.
func (s *IdempotencyStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("postgres idempotency store not configured")
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&checkoutKeyRecord{})
	return res.RowsAffected, res.Error
}

type checkoutKeyRecord struct {
	UserID      string    `gorm:"primaryKey;column:user_id;size:64"`
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:64;not null"`
	OrderID     string    `gorm:"column:order_id;size:64;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (checkoutKeyRecord) TableName() string { return "order_checkout_keys" }

func newCheckoutKeyRecord(rec ports.IdempotencyRecord) checkoutKeyRecord {
	return checkoutKeyRecord{
		UserID:      rec.UserID,
		Key:         rec.Key,
		RequestHash: rec.RequestHash,
		OrderID:     rec.OrderID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func (r *checkoutKeyRecord) toPort() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		UserID:      r.UserID,
		Key:         r.Key,
		RequestHash: r.RequestHash,
		OrderID:     r.OrderID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
