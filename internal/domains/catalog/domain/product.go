package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName        = errors.New("product name is required")
	ErrInvalidPrice     = errors.New("product price must not be negative")
	ErrInvalidStock     = errors.New("stock must not be negative")
	ErrInvalidDiscount  = errors.New("discount must be between 0 and 100")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrOutOfStock       = errors.New("insufficient stock")
	ErrInvalidProductID = errors.New("product id is required")
	ErrDuplicateName    = errors.New("a product with this name already exists")
)

// Product is the catalog aggregate. Comments are embedded and Summary is
// derived from them on every comment mutation.
type Product struct {
	ID       string
	Name     string
	Type     string
	Image    string
	Price    decimal.Decimal
	Stock    int
	Sold     int
	Discount int
	Comments []Comment
	Summary  RatingSummary
	// Rating is the mean star rating rounded to a whole star.
	Rating int
}

// NewProduct validates and constructs a product with no reviews.
func NewProduct(id, name string, price decimal.Decimal, stock, discount int) (*Product, error) {
	product := &Product{
		ID:       strings.TrimSpace(id),
		Name:     strings.TrimSpace(name),
		Price:    price,
		Stock:    stock,
		Discount: discount,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	product.RecomputeRating()
	return product, nil
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	if p.ID == "" {
		return ErrInvalidProductID
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 || p.Sold < 0 {
		return ErrInvalidStock
	}
	if p.Discount < 0 || p.Discount > 100 {
		return ErrInvalidDiscount
	}
	return nil
}

// ProductChanges lists the fields an administrator may edit. Nil fields are left untouched.
type ProductChanges struct {
	Name     *string
	Type     *string
	Image    *string
	Price    *decimal.Decimal
	Stock    *int
	Discount *int
}

// Apply edits the product and re-validates it. Sold and the reviews are not editable.
func (p *Product) Apply(c ProductChanges) error {
	if c.Name != nil {
		p.Name = strings.TrimSpace(*c.Name)
	}
	if c.Type != nil {
		p.Type = strings.TrimSpace(*c.Type)
	}
	if c.Image != nil {
		p.Image = strings.TrimSpace(*c.Image)
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Stock != nil {
		p.Stock = *c.Stock
	}
	if c.Discount != nil {
		p.Discount = *c.Discount
	}
	return p.Validate()
}

// SameName reports whether name collides with the product's name, ignoring case and surrounding space.
func (p *Product) SameName(name string) bool {
	return strings.EqualFold(p.Name, strings.TrimSpace(name))
}

// Reserve moves qty units from stock to sold.
func (p *Product) Reserve(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if p.Stock < qty {
		return ErrOutOfStock
	}
	p.Stock -= qty
	p.Sold += qty
	return nil
}

// Release returns qty units to stock. Sold never drops below zero.
func (p *Product) Release(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += qty
	p.Sold -= qty
	if p.Sold < 0 {
		p.Sold = 0
	}
	return nil
}

// Clone returns a deep copy safe to hand across adapter boundaries.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Comments != nil {
		clone.Comments = make([]Comment, len(p.Comments))
		for i := range p.Comments {
			clone.Comments[i] = p.Comments[i].clone()
		}
	}
	return &clone
}
