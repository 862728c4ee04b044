package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists users in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		if err := db.AutoMigrate(Models()...); err == nil {
			_ = EnsureIndexes(db)
		}
	}
	return repo
}

// Models lists the tables owned by the users context.
func Models() []any {
	return []any{&userRecord{}}
}

// EnsureIndexes adds the case-insensitive uniqueness rule on sign-in emails.
// Profiles synced from external tokens have no password and stay out of it.
func EnsureIndexes(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_login_email ON users (LOWER(email)) WHERE password_hash <> ''`).Error
}

type userRecord struct {
	ID           string    `gorm:"primaryKey;column:id;size:64"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email;index"`
	Phone        string    `gorm:"column:phone"`
	Address      string    `gorm:"column:address"`
	City         string    `gorm:"column:city"`
	Avatar       string    `gorm:"column:avatar"`
	IsAdmin      bool      `gorm:"column:is_admin"`
	PasswordHash string    `gorm:"column:password_hash;size:72;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Create inserts a new account. A clash on id or sign-in email fails without touching the stored row.
func (r *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := *user
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(&clone)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clone.HasPassword() {
			if err := ensureEmailFree(tx, clone.Email, clone.ID); err != nil {
				return err
			}
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, translateWriteError("create user", err)
	}
	return r.GetByID(ctx, record.ID)
}

// Upsert inserts or updates a user keyed by id.
func (r *Repository) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := *user
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(&clone)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clone.HasPassword() {
			if err := ensureEmailFree(tx, clone.Email, clone.ID); err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone", "address", "city", "avatar", "is_admin", "password_hash", "updated_at"}),
		}).Create(&record).Error
	})
	if err != nil {
		return nil, translateWriteError("upsert user", err)
	}
	return r.GetByID(ctx, record.ID)
}

// GetByEmail fetches the account with a password registered under email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND password_hash <> ''", strings.TrimSpace(email)).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	return record.toDomain(), nil
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return record.toDomain(), nil
}

// List returns all users ordered by id.
func (r *Repository) List(ctx context.Context) ([]*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []userRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*domain.User, 0, len(records))
	for i := range records {
		users = append(users, records[i].toDomain())
	}
	return users, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres user repository not configured")
	}
	return nil
}

func ensureEmailFree(tx *gorm.DB, email, exceptID string) error {
	var taken int64
	if err := tx.Model(&userRecord{}).
		Where("LOWER(email) = LOWER(?) AND password_hash <> '' AND id <> ?", email, exceptID).
		Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return ports.ErrEmailTaken
	}
	return nil
}

// translateWriteError maps unique violations onto ErrEmailTaken; the email index is the only
// one a fresh id can hit.
func translateWriteError(op string, err error) error {
	switch {
	case errors.Is(err, ports.ErrEmailTaken):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ports.ErrEmailTaken, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func toRecord(user *domain.User) userRecord {
	return userRecord{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Phone:        user.Phone,
		Address:      user.Address,
		City:         user.City,
		Avatar:       user.Avatar,
		IsAdmin:      user.IsAdmin,
		PasswordHash: user.PasswordHash,
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		City:         r.City,
		Avatar:       r.Avatar,
		IsAdmin:      r.IsAdmin,
		PasswordHash: r.PasswordHash,
	}
}
