package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
)

// Actor is the authenticated caller performing a catalog mutation.
type Actor struct {
	UserID  string
	IsAdmin bool
	Name    string
	Avatar  string
}

// CreateProductInput carries the fields accepted when listing a new product.
type CreateProductInput struct {
	Name     string
	Type     string
	Image    string
	Price    decimal.Decimal
	Stock    int
	Discount int
}

// UpdateProductInput edits a listed product; nil fields are left unchanged.
type UpdateProductInput struct {
	ProductID string
	Name      *string
	Type      *string
	Image     *string
	Price     *decimal.Decimal
	Stock     *int
	Discount  *int
}

// AddCommentInput describes a new review.
type AddCommentInput struct {
	ProductID string
	Actor     Actor
	Rating    int
	Text      string
	Images    []string
}

// UpdateCommentInput describes an author's edit; nil fields are left unchanged.
type UpdateCommentInput struct {
	ProductID string
	CommentID string
	Actor     Actor
	Rating    *int
	Text      *string
	Images    *[]string
}

// DeleteCommentInput identifies a review to remove.
type DeleteCommentInput struct {
	ProductID string
	CommentID string
	Actor     Actor
}

// ToggleLikeInput identifies the review and the user flipping their like.
type ToggleLikeInput struct {
	ProductID string
	CommentID string
	Actor     Actor
}

// CommentSort enumerates review orderings.
type CommentSort string

const (
	SortNewest        CommentSort = "newest"
	SortOldest        CommentSort = "oldest"
	SortHighestRating CommentSort = "highest_rating"
	SortLowestRating  CommentSort = "lowest_rating"
	SortMostLikes     CommentSort = "most_likes"
)

// ListCommentsInput pages through a product's reviews.
type ListCommentsInput struct {
	ProductID string
	Page      int
	Limit     int
	Sort      CommentSort
}

// CommentPage is one page of reviews plus the product's summary.
type CommentPage struct {
	Comments   []domain.Comment
	Page       int
	Limit      int
	Total      int
	TotalPages int
	Summary    domain.RatingSummary
}

// CommentResult returns the affected review and the recomputed summary.
type CommentResult struct {
	Comment domain.Comment
	Summary domain.RatingSummary
}

// LikeResult reports the like state after a toggle.
type LikeResult struct {
	CommentID string
	Liked     bool
	Likes     int
}
