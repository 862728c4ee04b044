package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

var (
	_ ports.Repository = (*Repository)(nil)
	_ ports.Ledger     = (*Repository)(nil)
)

// Repository persists products and their comments in PostgreSQL using GORM.
// It also implements the inventory ledger with conditional updates.
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

// EnsureIndexes makes product names unique ignoring case.
func EnsureIndexes(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_folded ON products (LOWER(name))`).Error
}

// Models lists the tables owned by the catalog context.
func Models() []any {
	return []any{&productRecord{}, &commentRecord{}}
}

type productRecord struct {
	ID            string          `gorm:"primaryKey;column:id;size:64"`
	Name          string          `gorm:"column:name;uniqueIndex"`
	Type          string          `gorm:"column:type;index"`
	Image         string          `gorm:"column:image"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(14,2)"`
	Stock         int             `gorm:"column:stock;check:chk_products_stock,stock >= 0"`
	Sold          int             `gorm:"column:sold"`
	Discount      int             `gorm:"column:discount"`
	RatingTotal   int             `gorm:"column:rating_total"`
	RatingAverage float64         `gorm:"column:rating_average"`
	RatingCounts  pq.Int64Array   `gorm:"column:rating_counts;type:bigint[]"`
	Rating        int             `gorm:"column:rating"`
	CreatedAt     time.Time       `gorm:"column:created_at;index"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type commentRecord struct {
	ID        string         `gorm:"primaryKey;column:id;size:64"`
	ProductID string         `gorm:"column:product_id;size:64;uniqueIndex:idx_comments_product_user"`
	UserID    string         `gorm:"column:user_id;size:64;uniqueIndex:idx_comments_product_user"`
	UserName  string         `gorm:"column:user_name"`
	Avatar    string         `gorm:"column:avatar"`
	Rating    int            `gorm:"column:rating"`
	Text      string         `gorm:"column:text"`
	Images    pq.StringArray `gorm:"column:images;type:text[]"`
	Likes     pq.StringArray `gorm:"column:likes;type:text[]"`
	Edited    bool           `gorm:"column:edited"`
	EditedAt  *time.Time     `gorm:"column:edited_at"`
	CreatedAt time.Time      `gorm:"column:created_at;index"`
}

func (commentRecord) TableName() string { return "product_comments" }

// Save inserts or updates a product row. Comments are written through MutateComments.
func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	product.RecomputeRating()
	record := toProductRecord(product)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, record.Name, record.ID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":       record.Name,
				"type":       record.Type,
				"image":      record.Image,
				"price":      record.Price,
				"stock":      record.Stock,
				"sold":       record.Sold,
				"discount":   record.Discount,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
	})
	if err != nil {
		return nil, translateWriteError("save product", record.Name, err)
	}
	return r.GetByID(ctx, record.ID)
}

// Update locks the product row, applies fn and writes back the editable catalog columns.
// Stock written here replaces the counter, so restocks serialize with ledger updates on the row lock.
func (r *Repository) Update(ctx context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var result *domain.Product
	var name string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := loadProduct(tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(product); err != nil {
			return err
		}
		product.ID = id
		if err := product.Validate(); err != nil {
			return err
		}
		name = product.Name
		if err := ensureNameFree(tx, product.Name, id); err != nil {
			return err
		}
		if err := tx.Model(&productRecord{}).Where("id = ?", id).Updates(map[string]any{
			"name":       product.Name,
			"type":       product.Type,
			"image":      product.Image,
			"price":      product.Price,
			"stock":      product.Stock,
			"discount":   product.Discount,
			"updated_at": gorm.Expr("NOW()"),
		}).Error; err != nil {
			return err
		}
		result = product
		return nil
	})
	if err != nil {
		return nil, translateWriteError("update product", name, err)
	}
	return result, nil
}

// Delete removes the products together with their comments.
func (r *Repository) Delete(ctx context.Context, ids ...string) (int, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id IN ?", ids).Delete(&commentRecord{}).Error; err != nil {
			return fmt.Errorf("delete product comments: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&productRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete products: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// ListTypes returns the distinct non-empty product types.
func (r *Repository) ListTypes(ctx context.Context) ([]string, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var kinds []string
	if err := r.db.WithContext(ctx).Model(&productRecord{}).
		Where("type <> ''").
		Distinct("type").
		Order("type ASC").
		Pluck("type", &kinds).Error; err != nil {
		return nil, fmt.Errorf("list product types: %w", err)
	}
	if kinds == nil {
		kinds = []string{}
	}
	return kinds, nil
}

// GetByID fetches a product and its comments.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return loadProduct(r.db.WithContext(ctx), id, false)
}

// List returns all products ordered by name.
func (r *Repository) List(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	var records []productRecord
	if err := db.Order("name ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(records) == 0 {
		return []*domain.Product{}, nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	var comments []commentRecord
	if err := db.Where("product_id IN ?", ids).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list product comments: %w", err)
	}
	byProduct := map[string][]commentRecord{}
	for _, c := range comments {
		byProduct[c.ProductID] = append(byProduct[c.ProductID], c)
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain(byProduct[records[i].ID]))
	}
	return products, nil
}

// MutateComments locks the product row, applies fn and writes back the changed comments and summary.
func (r *Repository) MutateComments(ctx context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var result *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := loadProduct(tx, id, true)
		if err != nil {
			return err
		}
		before := map[string]commentRecord{}
		for _, c := range product.Comments {
			before[c.ID] = toCommentRecord(id, c)
		}
		if err := fn(product); err != nil {
			return err
		}
		product.RecomputeRating()

		keep := make([]string, 0, len(product.Comments))
		for _, c := range product.Comments {
			keep = append(keep, c.ID)
			next := toCommentRecord(id, c)
			if prev, ok := before[c.ID]; ok && reflect.DeepEqual(prev, next) {
				continue
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&next).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.ErrDuplicateComment
				}
				return fmt.Errorf("write comment: %w", err)
			}
		}
		del := tx.Where("product_id = ?", id)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&commentRecord{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		summary := toProductRecord(product)
		if err := tx.Model(&productRecord{}).Where("id = ?", id).Updates(map[string]any{
			"rating_total":   summary.RatingTotal,
			"rating_average": summary.RatingAverage,
			"rating_counts":  summary.RatingCounts,
			"rating":         summary.Rating,
			"updated_at":     gorm.Expr("NOW()"),
		}).Error; err != nil {
			return fmt.Errorf("update rating summary: %w", err)
		}
		result = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) Reserve(ctx context.Context, productID string, qty int) error {
	return r.ReserveAll(ctx, []ports.StockLine{{ProductID: productID, Quantity: qty}})
}

func (r *Repository) Release(ctx context.Context, productID string, qty int) error {
	return r.ReleaseAll(ctx, []ports.StockLine{{ProductID: productID, Quantity: qty}})
}

// ReserveAll decrements every line inside one transaction using
// "stock = stock - q WHERE stock >= q"; any zero-row update rolls back the whole set.
func (r *Repository) ReserveAll(ctx context.Context, lines []ports.StockLine) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	merged, err := ports.NormalizeLines(lines)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range merged {
			res := tx.Model(&productRecord{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock - ?", line.Quantity),
					"sold":       gorm.Expr("sold + ?", line.Quantity),
					"updated_at": gorm.Expr("NOW()"),
				})
			if res.Error != nil {
				return fmt.Errorf("reserve stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return missingOrShort(tx, line)
			}
		}
		return nil
	})
}

// ReleaseAll returns stock for every line still in the catalog; sold is clamped at zero.
func (r *Repository) ReleaseAll(ctx context.Context, lines []ports.StockLine) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	merged, err := ports.NormalizeLines(lines)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range merged {
			res := tx.Model(&productRecord{}).
				Where("id = ?", line.ProductID).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock + ?", line.Quantity),
					"sold":       gorm.Expr("GREATEST(sold - ?, 0)", line.Quantity),
					"updated_at": gorm.Expr("NOW()"),
				})
			if res.Error != nil {
				return fmt.Errorf("release stock: %w", res.Error)
			}
		}
		return nil
	})
}

// ensureNameFree compares names case-insensitively; the unique index only guards exact matches.
func ensureNameFree(tx *gorm.DB, name, exceptID string) error {
	var taken int64
	if err := tx.Model(&productRecord{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).
		Count(&taken).Error; err != nil {
		return fmt.Errorf("check product name: %w", err)
	}
	if taken > 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateName, name)
	}
	return nil
}

func translateWriteError(op, name string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", domain.ErrDuplicateName, name)
	case errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, ports.ErrNotFound):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func missingOrShort(tx *gorm.DB, line ports.StockLine) error {
	var rec productRecord
	if err := tx.Select("id", "stock").First(&rec, "id = ?", line.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ports.ErrNotFound, line.ProductID)
		}
		return fmt.Errorf("reserve stock: %w", err)
	}
	return fmt.Errorf("%w: product %s has %d, requested %d", domain.ErrOutOfStock, line.ProductID, rec.Stock, line.Quantity)
}

func loadProduct(db *gorm.DB, id string, forUpdate bool) (*domain.Product, error) {
	query := db
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record productRecord
	if err := query.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	var comments []commentRecord
	if err := db.Where("product_id = ?", id).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return record.toDomain(comments), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

func toProductRecord(p *domain.Product) productRecord {
	counts := make(pq.Int64Array, len(p.Summary.CountsByStar))
	for i, n := range p.Summary.CountsByStar {
		counts[i] = int64(n)
	}
	return productRecord{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type,
		Image:         p.Image,
		Price:         p.Price,
		Stock:         p.Stock,
		Sold:          p.Sold,
		Discount:      p.Discount,
		RatingTotal:   p.Summary.TotalRatings,
		RatingAverage: p.Summary.AverageRating,
		RatingCounts:  counts,
		Rating:        p.Rating,
	}
}

func (r productRecord) toDomain(comments []commentRecord) *domain.Product {
	product := &domain.Product{
		ID:       r.ID,
		Name:     r.Name,
		Type:     r.Type,
		Image:    r.Image,
		Price:    r.Price,
		Stock:    r.Stock,
		Sold:     r.Sold,
		Discount: r.Discount,
		Comments: make([]domain.Comment, 0, len(comments)),
	}
	for _, c := range comments {
		product.Comments = append(product.Comments, c.toDomain())
	}
	// The stored summary is a cache; derive it from the comments actually loaded.
	product.RecomputeRating()
	return product
}

func toCommentRecord(productID string, c domain.Comment) commentRecord {
	return commentRecord{
		ID:        c.ID,
		ProductID: productID,
		UserID:    c.Author.UserID,
		UserName:  c.Author.Name,
		Avatar:    c.Author.Avatar,
		Rating:    c.Rating,
		Text:      c.Text,
		Images:    pq.StringArray(nonNil(c.Images)),
		Likes:     pq.StringArray(nonNil(c.Likes)),
		Edited:    c.Edited,
		EditedAt:  c.EditedAt,
		CreatedAt: c.CreatedAt,
	}
}

func (c commentRecord) toDomain() domain.Comment {
	return domain.Comment{
		ID:        c.ID,
		Author:    domain.Author{UserID: c.UserID, Name: c.UserName, Avatar: c.Avatar},
		Rating:    c.Rating,
		Text:      c.Text,
		Images:    []string(c.Images),
		Likes:     []string(c.Likes),
		Edited:    c.Edited,
		EditedAt:  c.EditedAt,
		CreatedAt: c.CreatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
