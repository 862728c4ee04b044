package mapper

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	catalogtypes "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
)

// CreateProduct is the payload accepted when listing a product.
type CreateProduct struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock"`
	Discount     int             `json:"discount"`
}

// UpdateProduct preserves field presence for partial product edits.
type UpdateProduct struct {
	Name         *string          `json:"name,omitempty"`
	Type         *string          `json:"type,omitempty"`
	Image        *string          `json:"image,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	CountInStock *int             `json:"countInStock,omitempty"`
	Discount     *int             `json:"discount,omitempty"`
}

// DeleteProducts is the body of a bulk delete.
type DeleteProducts struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// RatingSummary is the HTTP representation of a product's review aggregate.
type RatingSummary struct {
	TotalRatings  int            `json:"totalRatings"`
	AverageRating float64        `json:"averageRating"`
	RatingCounts  map[string]int `json:"ratingCounts"`
}

// Product is the HTTP representation of a catalog entry without its reviews.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type,omitempty"`
	Image         string          `json:"image,omitempty"`
	Price         decimal.Decimal `json:"price"`
	CountInStock  int             `json:"countInStock"`
	Selled        int             `json:"selled"`
	Discount      int             `json:"discount"`
	Rating        int             `json:"rating"`
	RatingSummary RatingSummary   `json:"ratingSummary"`
}

// CommentPayload is the body of a new review.
type CommentPayload struct {
	Rating  int      `json:"rating"`
	Comment string   `json:"comment"`
	Images  []string `json:"images,omitempty"`
}

// CommentEdit preserves field presence for review edits.
type CommentEdit struct {
	Rating  *int      `json:"rating,omitempty"`
	Comment *string   `json:"comment,omitempty"`
	Images  *[]string `json:"images,omitempty"`
}

// Comment is the HTTP representation of a review.
type Comment struct {
	ID         string     `json:"id"`
	User       string     `json:"user"`
	UserName   string     `json:"userName"`
	UserAvatar string     `json:"userAvatar,omitempty"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment"`
	Images     []string   `json:"images"`
	Likes      []string   `json:"likes"`
	LikesCount int        `json:"likesCount"`
	IsEdited   bool       `json:"isEdited"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CommentResult returns the affected review with the refreshed summary.
type CommentResult struct {
	Comment       Comment       `json:"comment"`
	RatingSummary RatingSummary `json:"ratingSummary"`
}

// Pagination describes the slice of reviews returned.
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalComments int  `json:"totalComments"`
	Limit         int  `json:"limit"`
	HasNextPage   bool `json:"hasNextPage"`
	HasPrevPage   bool `json:"hasPrevPage"`
}

// CommentPage is one page of reviews.
type CommentPage struct {
	Comments      []Comment     `json:"comments"`
	Pagination    Pagination    `json:"pagination"`
	RatingSummary RatingSummary `json:"ratingSummary"`
}

// LikeResult reports the caller's like state after a toggle.
type LikeResult struct {
	CommentID  string `json:"commentId"`
	IsLiked    bool   `json:"isLiked"`
	LikesCount int    `json:"likesCount"`
}

func ToCreateProductInput(payload CreateProduct) catalogtypes.CreateProductInput {
	return catalogtypes.CreateProductInput{
		Name:     payload.Name,
		Type:     payload.Type,
		Image:    payload.Image,
		Price:    payload.Price,
		Stock:    payload.CountInStock,
		Discount: payload.Discount,
	}
}

// ToUpdateProductInput targets the product named in the path.
func ToUpdateProductInput(productID string, payload UpdateProduct) catalogtypes.UpdateProductInput {
	return catalogtypes.UpdateProductInput{
		ProductID: productID,
		Name:      payload.Name,
		Type:      payload.Type,
		Image:     payload.Image,
		Price:     payload.Price,
		Stock:     payload.CountInStock,
		Discount:  payload.Discount,
	}
}

// FromProduct maps a product into its transport form.
func FromProduct(p *domain.Product) Product {
	if p == nil {
		return Product{}
	}
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type,
		Image:         p.Image,
		Price:         p.Price,
		CountInStock:  p.Stock,
		Selled:        p.Sold,
		Discount:      p.Discount,
		Rating:        p.Rating,
		RatingSummary: FromSummary(p.Summary),
	}
}

func FromProducts(list []*domain.Product) []Product {
	result := make([]Product, 0, len(list))
	for _, p := range list {
		result = append(result, FromProduct(p))
	}
	return result
}

// FromSummary keys the histogram by star value.
func FromSummary(s domain.RatingSummary) RatingSummary {
	counts := make(map[string]int, len(s.CountsByStar))
	for star := 1; star <= len(s.CountsByStar); star++ {
		counts[strconv.Itoa(star)] = s.Count(star)
	}
	return RatingSummary{
		TotalRatings:  s.TotalRatings,
		AverageRating: s.AverageRating,
		RatingCounts:  counts,
	}
}

func FromComment(c domain.Comment) Comment {
	images := append([]string{}, c.Images...)
	likes := append([]string{}, c.Likes...)
	return Comment{
		ID:         c.ID,
		User:       c.Author.UserID,
		UserName:   c.Author.Name,
		UserAvatar: c.Author.Avatar,
		Rating:     c.Rating,
		Comment:    c.Text,
		Images:     images,
		Likes:      likes,
		LikesCount: len(likes),
		IsEdited:   c.Edited,
		EditedAt:   c.EditedAt,
		CreatedAt:  c.CreatedAt,
	}
}

func FromCommentResult(r *catalogtypes.CommentResult) CommentResult {
	return CommentResult{Comment: FromComment(r.Comment), RatingSummary: FromSummary(r.Summary)}
}

// FromCommentPage maps a page of reviews together with its pagination block.
func FromCommentPage(page *catalogtypes.CommentPage) CommentPage {
	comments := make([]Comment, 0, len(page.Comments))
	for _, c := range page.Comments {
		comments = append(comments, FromComment(c))
	}
	return CommentPage{
		Comments: comments,
		Pagination: Pagination{
			CurrentPage:   page.Page,
			TotalPages:    page.TotalPages,
			TotalComments: page.Total,
			Limit:         page.Limit,
			HasNextPage:   page.Page < page.TotalPages,
			HasPrevPage:   page.Page > 1,
		},
		RatingSummary: FromSummary(page.Summary),
	}
}

func FromLikeResult(r *catalogtypes.LikeResult) LikeResult {
	return LikeResult{CommentID: r.CommentID, IsLiked: r.Liked, LikesCount: r.Likes}
}
