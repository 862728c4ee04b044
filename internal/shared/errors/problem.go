// Package errors renders RFC 7807 problem details for the storefront API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ProblemDetail is an RFC 7807 problem document.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy carrying detail.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with key set in the extension members.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

const (
	TypeValidation   = "/problems/validation-error"
	TypeBadRequest   = "/problems/bad-request"
	TypeUnauthorized = "/problems/unauthorized"
	TypeForbidden    = "/problems/forbidden"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeDuplicate    = "/problems/duplicate"
	TypeOutOfStock   = "/problems/out-of-stock"
	TypeUpstream     = "/problems/upstream-failure"
	TypeUnavailable  = "/problems/unavailable"
	TypeInternal     = "/problems/internal-error"
)

var (
	ErrValidation   = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	ErrBadRequest   = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	ErrUnauthorized = ProblemDetail{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden    = ProblemDetail{Type: TypeForbidden, Title: "Forbidden", Status: http.StatusForbidden}
	ErrNotFound     = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	ErrConflict     = ProblemDetail{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict}
	// ErrDuplicate means an equivalent resource exists, such as a taken product name or a reused Idempotency-Key.
	ErrDuplicate    = ProblemDetail{Type: TypeDuplicate, Title: "Duplicate Resource", Status: http.StatusConflict}
	// ErrOutOfStock means a line asked for more units than the ledger holds.
	ErrOutOfStock   = ProblemDetail{Type: TypeOutOfStock, Title: "Out Of Stock", Status: http.StatusConflict}
	// ErrUpstream means the payment processor or another dependency failed the call.
	ErrUpstream     = ProblemDetail{Type: TypeUpstream, Title: "Upstream Failure", Status: http.StatusBadGateway}
	ErrUnavailable  = ProblemDetail{Type: TypeUnavailable, Title: "Service Unavailable", Status: http.StatusServiceUnavailable}
	ErrInternal     = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
)

// NewOutOfStockProblem reports the line that could not be reserved.
func NewOutOfStockProblem(detail string) ProblemDetail {
	return ErrOutOfStock.WithDetail(detail)
}

// FromBindingError turns a gin binding failure into a problem. Struct tag violations become a
// validation problem listing each offending field; malformed bodies stay a plain bad request.
func FromBindingError(err error) ProblemDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ErrBadRequest.WithDetail(err.Error())
	}
	fields := make(map[string]string, len(fieldErrs))
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := lowerFirst(fe.Field())
		fields[name] = fe.Tag()
		names = append(names, name)
	}
	return ErrValidation.
		WithDetail("invalid fields: " + strings.Join(names, ", ")).
		WithExtension("fields", fields)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
