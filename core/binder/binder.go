package binder

import (
	"net/http"

	"github.com/hyperlocaleyes/backend/core/sanitizer"
	"github.com/hyperlocaleyes/backend/core/validator"
)

// Binder fills v from one part of the request.
type Binder func(r *http.Request, v any) error

// Bind runs binders in order, applies `sanitize` tags and then validates v
// with its `validate` tags. The first binding error stops the chain.
//
//	var req struct {
//		PostID  string `path:"postId" validate:"required;hex:24"`
//		Content string `json:"content" validate:"required;max:500"`
//	}
//	if err := binder.Bind(ctx.Request(), &req, binder.Path(), binder.JSON()); err != nil {
//		return response.Error(err)
//	}
func Bind(r *http.Request, v any, binders ...Binder) error {
	for _, bind := range binders {
		if err := bind(r, v); err != nil {
			return err
		}
	}
	if err := sanitizer.SanitizeStruct(v); err != nil {
		return ErrInvalidTarget
	}
	return validator.ValidateStruct(v)
}
