package storefrontserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application"
	catalogdomain "github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
	chatapp "github.com/Apurer/go-gin-storefront/internal/domains/chat/application"
	chatports "github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	paymentapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
	userapp "github.com/Apurer/go-gin-storefront/internal/domains/users/application"
	userports "github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var responder = apierrors.NewChainedResponder("",
	mapValidationError,
	mapOutOfStockError,
	mapForbiddenError,
	mapConflictError,
	mapNotFoundError,
	mapUpstreamError,
)

var problemRealtimeDisabled = apierrors.ErrUnavailable.WithDetail("realtime chat is not enabled")

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondServiceError translates application errors into RFC 7807 responses.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func badRequest(c *gin.Context, err error) {
	respondProblem(c, apierrors.FromBindingError(err))
}

func mapValidationError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, orderapp.ErrInvalidInput) ||
		errors.Is(err, orderapp.ErrNothingToUpdate) ||
		errors.Is(err, catalogapp.ErrInvalidInput) ||
		errors.Is(err, chatapp.ErrInvalidInput) ||
		errors.Is(err, paymentapp.ErrInvalidInput) ||
		errors.Is(err, userapp.ErrInvalidInput) {
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapOutOfStockError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, orderapp.ErrOutOfStock) || errors.Is(err, catalogdomain.ErrOutOfStock) {
		return apierrors.NewOutOfStockProblem(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapForbiddenError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, orderapp.ErrMissingActor), errors.Is(err, chatapp.ErrMissingActor):
		return apierrors.ErrUnauthorized.WithDetail(err.Error()), true
	case errors.Is(err, userapp.ErrInvalidCredentials):
		return apierrors.ErrUnauthorized.WithDetail(userapp.ErrInvalidCredentials.Error()), true
	case errors.Is(err, userapp.ErrInvalidRefreshToken):
		return apierrors.ErrUnauthorized.WithDetail(userapp.ErrInvalidRefreshToken.Error()), true
	case errors.Is(err, orderapp.ErrForbidden),
		errors.Is(err, catalogapp.ErrForbidden),
		errors.Is(err, catalogapp.ErrNotPurchased),
		errors.Is(err, chatapp.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapConflictError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, orderapp.ErrDuplicate), errors.Is(err, catalogapp.ErrDuplicate), errors.Is(err, userapp.ErrDuplicate):
		return apierrors.ErrDuplicate.WithDetail(err.Error()), true
	case errors.Is(err, orderapp.ErrInvalidTransition), errors.Is(err, orderports.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapNotFoundError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, orderports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("order not found"), true
	case errors.Is(err, catalogports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("product not found"), true
	case errors.Is(err, catalogapp.ErrCommentNotFound):
		return apierrors.ErrNotFound.WithDetail("comment not found"), true
	case errors.Is(err, userports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("user not found"), true
	case errors.Is(err, chatports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("conversation not found"), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapUpstreamError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, paymentapp.ErrUpstream):
		return apierrors.ErrUpstream.WithDetail(err.Error()), true
	case errors.Is(err, userapp.ErrTokensUnavailable):
		return apierrors.ErrUnavailable.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
