package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM with version-checked updates.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(Models()...)
	}
	return repo
}

// Models lists the tables owned by the orders context.
func Models() []any {
	return []any{&orderRecord{}, &orderItemRecord{}, &checkoutKeyRecord{}}
}

type orderRecord struct {
	ID             string          `gorm:"primaryKey;column:id;size:64"`
	UserID         string          `gorm:"column:user_id;size:64;index"`
	Email          string          `gorm:"column:email"`
	FullName       string          `gorm:"column:ship_full_name"`
	Address        string          `gorm:"column:ship_address"`
	City           string          `gorm:"column:ship_city"`
	Country        string          `gorm:"column:ship_country"`
	Phone          string          `gorm:"column:ship_phone"`
	Delivery       string          `gorm:"column:delivery"`
	PaymentMethod  string          `gorm:"column:payment_method;size:16"`
	DeliveryStatus string          `gorm:"column:delivery_status;size:16;index"`
	PaymentStatus  string          `gorm:"column:payment_status;size:16"`
	PaidAt         *time.Time      `gorm:"column:paid_at"`
	DeliveredAt    *time.Time      `gorm:"column:delivered_at"`
	CancelledAt    *time.Time      `gorm:"column:cancelled_at"`
	ItemsPrice     decimal.Decimal `gorm:"column:items_price;type:numeric(14,2)"`
	ShippingPrice  decimal.Decimal `gorm:"column:shipping_price;type:numeric(14,2)"`
	TaxPrice       decimal.Decimal `gorm:"column:tax_price;type:numeric(14,2)"`
	DiscountPrice  decimal.Decimal `gorm:"column:discount_price;type:numeric(14,2)"`
	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:numeric(14,2)"`
	StockReserved  bool            `gorm:"column:stock_reserved"`
	ReleaseClaimed *time.Time      `gorm:"column:release_claimed_at"`
	Version        int64           `gorm:"column:version"`
	CreatedAt      time.Time       `gorm:"column:created_at;index"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`

	Items []orderItemRecord `gorm:"foreignKey:OrderID;references:ID"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        uint            `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   string          `gorm:"column:order_id;size:64;index"`
	Position  int             `gorm:"column:position"`
	ProductID string          `gorm:"column:product_id;size:64;index"`
	Name      string          `gorm:"column:name"`
	Image     string          `gorm:"column:image"`
	Quantity  int             `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2)"`
	Discount  int             `gorm:"column:discount"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Create inserts the order and its line items in one transaction.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.Version = 1
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: order %s already exists", ports.ErrConflict, order.ID)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.Version = record.Version
	return r.GetByID(ctx, order.ID)
}

// Update writes mutable order columns guarded by "version = ?".
func (r *Repository) Update(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	res := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"delivery_status":    string(order.DeliveryStatus),
			"payment_status":     string(order.PaymentStatus),
			"paid_at":            order.PaidAt,
			"delivered_at":       order.DeliveredAt,
			"cancelled_at":       order.CancelledAt,
			"stock_reserved":     order.StockReserved,
			"release_claimed_at": order.ReleaseClaimedAt,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: order %s changed since version %d", ports.ErrConflict, order.ID, order.Version)
	}
	order.Version++
	return r.GetByID(ctx, order.ID)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return record.toProjection(), nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").Order("id DESC")
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.DeliveryStatus != "" {
		query = query.Where("delivery_status = ?", string(filter.DeliveryStatus))
	}
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	result := make([]*projection.Projection[*domain.Order], 0, len(records))
	for i := range records {
		result = append(result, records[i].toProjection())
	}
	return result, nil
}

func (r *Repository) HasDeliveredPurchase(ctx context.Context, userID, productID string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&orderRecord{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.user_id = ? AND orders.delivery_status = ? AND order_items.product_id = ?",
			userID, string(domain.DeliveryDelivered), productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(o *domain.Order) orderRecord {
	items := make([]orderItemRecord, 0, len(o.Items))
	for i, item := range o.Items {
		items = append(items, orderItemRecord{
			OrderID:   o.ID,
			Position:  i,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		})
	}
	return orderRecord{
		ID:             o.ID,
		UserID:         o.UserID,
		Email:          o.Email,
		FullName:       o.Shipping.FullName,
		Address:        o.Shipping.Address,
		City:           o.Shipping.City,
		Country:        o.Shipping.Country,
		Phone:          o.Shipping.Phone,
		Delivery:       o.Delivery,
		PaymentMethod:  string(o.PaymentMethod),
		DeliveryStatus: string(o.DeliveryStatus),
		PaymentStatus:  string(o.PaymentStatus),
		PaidAt:         o.PaidAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		ItemsPrice:     o.Totals.Items,
		ShippingPrice:  o.Totals.Shipping,
		TaxPrice:       o.Totals.Tax,
		DiscountPrice:  o.Totals.Discount,
		TotalPrice:     o.Totals.Total,
		StockReserved:  o.StockReserved,
		ReleaseClaimed: o.ReleaseClaimedAt,
		Version:        o.Version,
		Items:          items,
	}
}

func (r orderRecord) toProjection() *projection.Projection[*domain.Order] {
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		})
	}
	order := &domain.Order{
		ID:     r.ID,
		UserID: r.UserID,
		Email:  r.Email,
		Items:  items,
		Shipping: domain.ShippingAddress{
			FullName: r.FullName,
			Address:  r.Address,
			City:     r.City,
			Country:  r.Country,
			Phone:    r.Phone,
		},
		Delivery:       r.Delivery,
		PaymentMethod:  domain.PaymentMethod(r.PaymentMethod),
		DeliveryStatus: domain.DeliveryStatus(r.DeliveryStatus),
		PaymentStatus:  domain.PaymentStatus(r.PaymentStatus),
		PaidAt:         r.PaidAt,
		DeliveredAt:    r.DeliveredAt,
		CancelledAt:    r.CancelledAt,
		Totals: domain.Totals{
			Items:    r.ItemsPrice,
			Shipping: r.ShippingPrice,
			Tax:      r.TaxPrice,
			Discount: r.DiscountPrice,
			Total:    r.TotalPrice,
		},
		StockReserved:    r.StockReserved,
		ReleaseClaimedAt: r.ReleaseClaimed,
		Version:          r.Version,
	}
	return projection.New(order, projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt})
}
