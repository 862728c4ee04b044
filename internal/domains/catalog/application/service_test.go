package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/memory"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

type fakePurchases struct {
	buyers map[string]bool
}

func (f fakePurchases) HasPurchased(_ context.Context, userID, _ string) (bool, error) {
	return f.buyers[userID], nil
}

func newTestService(t *testing.T, buyers ...string) (*Service, *domain.Product) {
	t.Helper()
	allowed := map[string]bool{}
	for _, b := range buyers {
		allowed[b] = true
	}
	var seq atomic.Int64
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewRepository(), fakePurchases{buyers: allowed},
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
		WithClock(func() time.Time { return base.Add(time.Duration(seq.Load()) * time.Minute) }),
	)
	product, err := svc.CreateProduct(context.Background(), types.CreateProductInput{
		Name:  "Desk Lamp",
		Price: decimal.NewFromInt(250000),
		Stock: 5,
	})
	require.NoError(t, err)
	return svc, product
}

func addComment(t *testing.T, svc *Service, productID, user string, rating int) *types.CommentResult {
	t.Helper()
	result, err := svc.AddComment(context.Background(), types.AddCommentInput{
		ProductID: productID,
		Actor:     types.Actor{UserID: user, Name: user},
		Rating:    rating,
		Text:      "great",
	})
	require.NoError(t, err)
	return result
}

func TestCreateProduct_InvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateProduct(context.Background(), types.CreateProductInput{Name: "", Price: decimal.Zero})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestCreateProduct_RejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateProduct(context.Background(), types.CreateProductInput{
		Name:  "desk lamp",
		Price: decimal.NewFromInt(1),
		Stock: 1,
	})
	require.ErrorIs(t, err, ErrDuplicate)
	require.ErrorIs(t, err, domain.ErrDuplicateName)

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestUpdateProduct_RestocksAndValidates(t *testing.T) {
	svc, product := newTestService(t)
	ctx := context.Background()

	stock, kind := 40, "lighting"
	updated, err := svc.UpdateProduct(ctx, types.UpdateProductInput{ProductID: product.ID, Stock: &stock, Type: &kind})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Stock)
	assert.Equal(t, "Desk Lamp", updated.Name)

	kinds, err := svc.ListProductTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lighting"}, kinds)

	negative := -1
	_, err = svc.UpdateProduct(ctx, types.UpdateProductInput{ProductID: product.ID, Stock: &negative})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateProduct(ctx, types.UpdateProductInput{ProductID: "ghost", Stock: &stock})
	require.ErrorIs(t, err, ports.ErrNotFound)

	other, err := svc.CreateProduct(ctx, types.CreateProductInput{Name: "Floor Lamp", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	clash := "DESK LAMP"
	_, err = svc.UpdateProduct(ctx, types.UpdateProductInput{ProductID: other.ID, Name: &clash})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestDeleteProducts(t *testing.T) {
	svc, product := newTestService(t)
	ctx := context.Background()
	other, err := svc.CreateProduct(ctx, types.CreateProductInput{Name: "Floor Lamp", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	third, err := svc.CreateProduct(ctx, types.CreateProductInput{Name: "Shade", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))
	require.ErrorIs(t, svc.DeleteProduct(ctx, product.ID), ports.ErrNotFound)

	_, err = svc.DeleteProducts(ctx, []string{" ", ""})
	require.ErrorIs(t, err, ErrInvalidInput)

	removed, err := svc.DeleteProducts(ctx, []string{other.ID, other.ID, third.ID, "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestAddComment_RequiresPurchase(t *testing.T) {
	svc, product := newTestService(t)
	_, err := svc.AddComment(context.Background(), types.AddCommentInput{
		ProductID: product.ID,
		Actor:     types.Actor{UserID: "u1"},
		Rating:    5,
		Text:      "nice",
	})
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, err, ErrNotPurchased)
}

func TestAddComment_UnknownProduct(t *testing.T) {
	svc, _ := newTestService(t, "u1")
	_, err := svc.AddComment(context.Background(), types.AddCommentInput{
		ProductID: "missing",
		Actor:     types.Actor{UserID: "u1"},
		Rating:    5,
		Text:      "nice",
	})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestAddComment_UpdatesSummary(t *testing.T) {
	svc, product := newTestService(t, "u1", "u2")
	addComment(t, svc, product.ID, "u1", 5)
	result := addComment(t, svc, product.ID, "u2", 2)

	assert.Equal(t, 2, result.Summary.TotalRatings)
	assert.Equal(t, 3.5, result.Summary.AverageRating)
	assert.Equal(t, 1, result.Summary.Count(5))
	assert.Equal(t, 1, result.Summary.Count(2))

	stats, err := svc.RatingStats(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Summary, *stats)
}

func TestAddComment_ConcurrentDuplicateOnlyOneWins(t *testing.T) {
	svc, product := newTestService(t, "u1")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddComment(context.Background(), types.AddCommentInput{
				ProductID: product.ID,
				Actor:     types.Actor{UserID: "u1"},
				Rating:    4,
				Text:      "same user",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicate)
	}
	assert.Equal(t, 1, succeeded)

	stats, err := svc.RatingStats(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRatings)
}

func TestUpdateComment_OwnerOnly(t *testing.T) {
	svc, product := newTestService(t, "u1")
	added := addComment(t, svc, product.ID, "u1", 5)

	rating := 1
	_, err := svc.UpdateComment(context.Background(), types.UpdateCommentInput{
		ProductID: product.ID,
		CommentID: added.Comment.ID,
		Actor:     types.Actor{UserID: "intruder", IsAdmin: true},
		Rating:    &rating,
	})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateComment(context.Background(), types.UpdateCommentInput{
		ProductID: product.ID,
		CommentID: added.Comment.ID,
		Actor:     types.Actor{UserID: "u1"},
		Rating:    &rating,
	})
	require.NoError(t, err)
	assert.True(t, updated.Comment.Edited)
	assert.Equal(t, 1.0, updated.Summary.AverageRating)
}

func TestDeleteComment_AdminOverride(t *testing.T) {
	svc, product := newTestService(t, "u1", "u2")
	first := addComment(t, svc, product.ID, "u1", 5)
	addComment(t, svc, product.ID, "u2", 3)

	_, err := svc.DeleteComment(context.Background(), types.DeleteCommentInput{
		ProductID: product.ID,
		CommentID: first.Comment.ID,
		Actor:     types.Actor{UserID: "u2"},
	})
	require.ErrorIs(t, err, ErrForbidden)

	summary, err := svc.DeleteComment(context.Background(), types.DeleteCommentInput{
		ProductID: product.ID,
		CommentID: first.Comment.ID,
		Actor:     types.Actor{UserID: "admin", IsAdmin: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRatings)
	assert.Equal(t, 3.0, summary.AverageRating)
}

func TestToggleLike_FlipsMembership(t *testing.T) {
	svc, product := newTestService(t, "u1")
	added := addComment(t, svc, product.ID, "u1", 5)

	in := types.ToggleLikeInput{ProductID: product.ID, CommentID: added.Comment.ID, Actor: types.Actor{UserID: "fan"}}
	res, err := svc.ToggleLike(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)

	res, err = svc.ToggleLike(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.Likes)
}

func TestListComments_SortAndPaginate(t *testing.T) {
	svc, product := newTestService(t, "u1", "u2", "u3")
	addComment(t, svc, product.ID, "u1", 3)
	addComment(t, svc, product.ID, "u2", 5)
	third := addComment(t, svc, product.ID, "u3", 1)

	page, err := svc.ListComments(context.Background(), types.ListCommentsInput{ProductID: product.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, third.Comment.ID, page.Comments[0].ID)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	page, err = svc.ListComments(context.Background(), types.ListCommentsInput{ProductID: product.ID, Sort: types.SortHighestRating})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3, 1}, ratings(page.Comments))

	page, err = svc.ListComments(context.Background(), types.ListCommentsInput{ProductID: product.ID, Sort: types.SortLowestRating})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, ratings(page.Comments))

	page, err = svc.ListComments(context.Background(), types.ListCommentsInput{ProductID: product.ID, Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Comments)
}

func ratings(comments []domain.Comment) []int {
	out := make([]int, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Rating)
	}
	return out
}
