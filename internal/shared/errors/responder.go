package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of every error body.
const ContentTypeProblemJSON = "application/problem+json"

const genericInternalDetail = "an unexpected error occurred"

// ErrorMapper recognises an application error and picks its problem.
type ErrorMapper func(err error) (ProblemDetail, bool)

// ChainedResponder writes problems, consulting its mappers in order for plain errors.
type ChainedResponder struct {
	baseURI string
	mappers []ErrorMapper
}

// NewChainedResponder creates a responder. A non-empty baseURI is prefixed to relative problem types.
func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{baseURI: baseURI, mappers: mappers}
}

// Respond writes problem, defaulting Instance to the request path.
func (r *ChainedResponder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError maps err through the chain. Unrecognised errors are attached to the gin context
// and answered with a generic 500.
func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	_ = c.Error(err)
	r.Respond(c, ErrInternal.WithDetail(genericInternalDetail))
}

var defaultResponder = NewChainedResponder("")

// Respond writes problem with relative type URIs. Used by middleware that runs outside a handler's responder.
func Respond(c *gin.Context, problem ProblemDetail) {
	defaultResponder.Respond(c, problem)
}
