package application

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

const (
	defaultCommentLimit = 10
	maxCommentLimit     = 50
)

// Service orchestrates product and review use cases.
type Service struct {
	repo      ports.Repository
	purchases ports.PurchaseVerifier
	now       func() time.Time
	newID     func() string
}

// Option customises the service.
type Option func(*Service)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// NewService wires the catalog service. purchases may be nil, in which case
// every review is rejected as unverified.
func NewService(repo ports.Repository, purchases ports.PurchaseVerifier, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		purchases: purchases,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateProduct(ctx context.Context, input types.CreateProductInput) (*domain.Product, error) {
	product, err := domain.NewProduct(s.newID(), input.Name, input.Price, input.Stock, input.Discount)
	if err != nil {
		return nil, mapError(err)
	}
	product.Type = strings.TrimSpace(input.Type)
	product.Image = strings.TrimSpace(input.Image)
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// UpdateProduct edits catalog fields. Setting Stock is how a product is restocked.
func (s *Service) UpdateProduct(ctx context.Context, input types.UpdateProductInput) (*domain.Product, error) {
	changes := domain.ProductChanges{
		Name:     input.Name,
		Type:     input.Type,
		Image:    input.Image,
		Price:    input.Price,
		Stock:    input.Stock,
		Discount: input.Discount,
	}
	updated, err := s.repo.Update(ctx, input.ProductID, func(p *domain.Product) error {
		return p.Apply(changes)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// DeleteProduct removes one product and its reviews.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// DeleteProducts removes every listed product that exists and reports how many were removed.
func (s *Service) DeleteProducts(ctx context.Context, ids []string) (int, error) {
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, ErrNoProducts)
	}
	return s.repo.Delete(ctx, unique...)
}

func (s *Service) ListProductTypes(ctx context.Context) ([]string, error) {
	return s.repo.ListTypes(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

// AddComment records a review by a verified purchaser.
func (s *Service) AddComment(ctx context.Context, input types.AddCommentInput) (*types.CommentResult, error) {
	if strings.TrimSpace(input.Actor.UserID) == "" {
		return nil, mapError(domain.ErrMissingAuthor)
	}
	comment, err := domain.NewComment(
		s.newID(),
		domain.Author{UserID: input.Actor.UserID, Name: input.Actor.Name, Avatar: input.Actor.Avatar},
		input.Rating,
		input.Text,
		input.Images,
		s.now(),
	)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.repo.GetByID(ctx, input.ProductID); err != nil {
		return nil, err
	}
	if err := s.verifyPurchase(ctx, input.Actor.UserID, input.ProductID); err != nil {
		return nil, err
	}
	product, err := s.repo.MutateComments(ctx, input.ProductID, func(p *domain.Product) error {
		return p.AddComment(*comment)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &types.CommentResult{Comment: *comment, Summary: product.Summary}, nil
}

// ListComments returns one page of reviews in the requested order.
func (s *Service) ListComments(ctx context.Context, input types.ListCommentsInput) (*types.CommentPage, error) {
	product, err := s.repo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	page := max(input.Page, 1)
	limit := input.Limit
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	limit = min(limit, maxCommentLimit)

	comments := slices.Clone(product.Comments)
	sortComments(comments, input.Sort)

	total := len(comments)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return &types.CommentPage{
		Comments:   comments[start:end],
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
		Summary:    product.Summary,
	}, nil
}

// UpdateComment applies an author's edit.
func (s *Service) UpdateComment(ctx context.Context, input types.UpdateCommentInput) (*types.CommentResult, error) {
	var edited *domain.Comment
	product, err := s.repo.MutateComments(ctx, input.ProductID, func(p *domain.Product) error {
		c, err := p.EditComment(input.CommentID, input.Actor.UserID, domain.CommentEdit{
			Rating: input.Rating,
			Text:   input.Text,
			Images: input.Images,
		}, s.now())
		edited = c
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &types.CommentResult{Comment: *edited, Summary: product.Summary}, nil
}

// DeleteComment removes a review. Authors may delete their own; admins may delete any.
func (s *Service) DeleteComment(ctx context.Context, input types.DeleteCommentInput) (*domain.RatingSummary, error) {
	product, err := s.repo.MutateComments(ctx, input.ProductID, func(p *domain.Product) error {
		return p.RemoveComment(input.CommentID, input.Actor.UserID, input.Actor.IsAdmin)
	})
	if err != nil {
		return nil, mapError(err)
	}
	summary := product.Summary
	return &summary, nil
}

// ToggleLike flips the caller's like on a review.
func (s *Service) ToggleLike(ctx context.Context, input types.ToggleLikeInput) (*types.LikeResult, error) {
	result := &types.LikeResult{CommentID: input.CommentID}
	_, err := s.repo.MutateComments(ctx, input.ProductID, func(p *domain.Product) error {
		c, liked, err := p.ToggleLike(input.CommentID, input.Actor.UserID)
		if err != nil {
			return err
		}
		result.Liked = liked
		result.Likes = len(c.Likes)
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// RatingStats returns the product's current rating summary.
func (s *Service) RatingStats(ctx context.Context, productID string) (*domain.RatingSummary, error) {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	summary := product.Summary
	return &summary, nil
}

func (s *Service) verifyPurchase(ctx context.Context, userID, productID string) error {
	if s.purchases == nil {
		return fmt.Errorf("%w: %w", ErrForbidden, ErrNotPurchased)
	}
	ok, err := s.purchases.HasPurchased(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("verify purchase: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %w", ErrForbidden, ErrNotPurchased)
	}
	return nil
}

func sortComments(comments []domain.Comment, order types.CommentSort) {
	newestFirst := func(a, b domain.Comment) int { return b.CreatedAt.Compare(a.CreatedAt) }
	switch order {
	case types.SortOldest:
		slices.SortStableFunc(comments, func(a, b domain.Comment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case types.SortHighestRating:
		slices.SortStableFunc(comments, func(a, b domain.Comment) int {
			return cmp.Or(cmp.Compare(b.Rating, a.Rating), newestFirst(a, b))
		})
	case types.SortLowestRating:
		slices.SortStableFunc(comments, func(a, b domain.Comment) int {
			return cmp.Or(cmp.Compare(a.Rating, b.Rating), newestFirst(a, b))
		})
	case types.SortMostLikes:
		slices.SortStableFunc(comments, func(a, b domain.Comment) int {
			return cmp.Or(cmp.Compare(len(b.Likes), len(a.Likes)), newestFirst(a, b))
		})
	default:
		slices.SortStableFunc(comments, newestFirst)
	}
}

var _ ports.Service = (*Service)(nil)
