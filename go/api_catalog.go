package storefrontserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	cataloghttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/http/mapper"
	catalogtypes "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application/types"
	catalogports "github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
	userports "github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

// CatalogAPI serves products and their reviews.
type CatalogAPI struct {
	service catalogports.Service
	users   userports.Service
}

// NewCatalogAPI wires dependencies. users fills in reviewer names the token does not carry and may be nil.
func NewCatalogAPI(service catalogports.Service, users userports.Service) CatalogAPI {
	return CatalogAPI{service: service, users: users}
}

// Get /api/products
// List products, optionally narrowed to one ?type=
func (api *CatalogAPI) ListProducts(c *gin.Context) {
	products, err := api.service.ListProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if kind := strings.TrimSpace(c.Query("type")); kind != "" {
		matching := products[:0]
		for _, p := range products {
			if strings.EqualFold(p.Type, kind) {
				matching = append(matching, p)
			}
		}
		products = matching
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProducts(products))
}

// Get /api/products/:productId
// Find product by ID
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	product, err := api.service.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProduct(product))
}

// Post /api/products
// List a new product
func (api *CatalogAPI) CreateProduct(c *gin.Context) {
	var payload cataloghttpmapper.CreateProduct
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	product, err := api.service.CreateProduct(c.Request.Context(), cataloghttpmapper.ToCreateProductInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloghttpmapper.FromProduct(product))
}

// Put /api/products/:productId
// Edit or restock a product
func (api *CatalogAPI) UpdateProduct(c *gin.Context) {
	var payload cataloghttpmapper.UpdateProduct
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	product, err := api.service.UpdateProduct(c.Request.Context(), cataloghttpmapper.ToUpdateProductInput(c.Param("productId"), payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProduct(product))
}

// Delete /api/products/:productId
// Remove a product and its reviews
func (api *CatalogAPI) DeleteProduct(c *gin.Context) {
	if err := api.service.DeleteProduct(c.Request.Context(), c.Param("productId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete /api/products
// Remove several products at once
func (api *CatalogAPI) DeleteProducts(c *gin.Context) {
	var payload cataloghttpmapper.DeleteProducts
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	removed, err := api.service.DeleteProducts(c.Request.Context(), payload.IDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

// Get /api/product-types
// Distinct product types for catalog filters
func (api *CatalogAPI) ListProductTypes(c *gin.Context) {
	kinds, err := api.service.ListProductTypes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, kinds)
}

// Post /api/products/:productId/comments
// Review a purchased product
func (api *CatalogAPI) AddComment(c *gin.Context) {
	var payload cataloghttpmapper.CommentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	input := catalogtypes.AddCommentInput{
		ProductID: c.Param("productId"),
		Actor:     api.reviewer(c),
		Rating:    payload.Rating,
		Text:      payload.Comment,
		Images:    payload.Images,
	}
	result, err := api.service.AddComment(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloghttpmapper.FromCommentResult(result))
}

// Get /api/products/:productId/comments
// Page through a product's reviews
func (api *CatalogAPI) ListComments(c *gin.Context) {
	page, ok := parseIntQuery(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	input := catalogtypes.ListCommentsInput{
		ProductID: c.Param("productId"),
		Page:      page,
		Limit:     limit,
		Sort:      catalogtypes.CommentSort(c.DefaultQuery("sort", string(catalogtypes.SortNewest))),
	}
	result, err := api.service.ListComments(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromCommentPage(result))
}

// Put /api/products/:productId/comments/:commentId
// Edit the caller's review
func (api *CatalogAPI) UpdateComment(c *gin.Context) {
	var payload cataloghttpmapper.CommentEdit
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	input := catalogtypes.UpdateCommentInput{
		ProductID: c.Param("productId"),
		CommentID: c.Param("commentId"),
		Actor:     catalogActor(c),
		Rating:    payload.Rating,
		Text:      payload.Comment,
		Images:    payload.Images,
	}
	result, err := api.service.UpdateComment(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromCommentResult(result))
}

// Delete /api/products/:productId/comments/:commentId
// Remove a review; admins may remove any review
func (api *CatalogAPI) DeleteComment(c *gin.Context) {
	input := catalogtypes.DeleteCommentInput{
		ProductID: c.Param("productId"),
		CommentID: c.Param("commentId"),
		Actor:     catalogActor(c),
	}
	summary, err := api.service.DeleteComment(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratingSummary": cataloghttpmapper.FromSummary(*summary)})
}

// Post /api/products/:productId/comments/:commentId/like
// Toggle the caller's like on a review
func (api *CatalogAPI) ToggleLike(c *gin.Context) {
	input := catalogtypes.ToggleLikeInput{
		ProductID: c.Param("productId"),
		CommentID: c.Param("commentId"),
		Actor:     catalogActor(c),
	}
	result, err := api.service.ToggleLike(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromLikeResult(result))
}

// Get /api/products/:productId/rating-stats
// Rating histogram and average
func (api *CatalogAPI) RatingStats(c *gin.Context) {
	summary, err := api.service.RatingStats(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromSummary(*summary))
}

// reviewer snapshots the author's name and avatar, preferring the stored profile over the token claims.
func (api *CatalogAPI) reviewer(c *gin.Context) catalogtypes.Actor {
	actor := catalogActor(c)
	if api.users == nil || actor.UserID == "" {
		return actor
	}
	user, err := api.users.GetByID(c.Request.Context(), actor.UserID)
	if err != nil || user == nil {
		return actor
	}
	if name := user.DisplayName(); name != "" {
		actor.Name = name
	}
	if user.Avatar != "" {
		actor.Avatar = user.Avatar
	}
	return actor
}

func catalogActor(c *gin.Context) catalogtypes.Actor {
	principal, _ := auth.PrincipalFrom(c)
	return catalogtypes.Actor{
		UserID:  principal.UserID,
		IsAdmin: principal.IsAdmin,
		Name:    principal.Name,
		Avatar:  principal.Avatar,
	}
}

func parseIntQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, errors.New(name+" must be an integer"))
		return 0, false
	}
	return value, true
}
