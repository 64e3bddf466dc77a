package sanitizer

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/hyperlocaleyes/backend/core/logger"
)

// DefaultMaxDepth bounds how deep stages descend into nested payloads.
const DefaultMaxDepth = 32

// RequestView is the mutable part of a request as seen by sanitization:
// the decoded JSON body, query parameters and path parameters.
type RequestView struct {
	Body   any
	Query  map[string]any
	Params map[string]any
}

// Stage is one step of the sanitization pipeline. Stages are stateless
// transformations and must be idempotent.
type Stage interface {
	Name() string
	Apply(ctx context.Context, view RequestView) (RequestView, error)
}

func applyWalker(w *walker, view RequestView) (RequestView, error) {
	var out RequestView

	body, err := w.walk(view.Body, "body", 0)
	if err != nil {
		return RequestView{}, err
	}
	out.Body = body

	if out.Query, err = walkMap(w, view.Query, "query"); err != nil {
		return RequestView{}, err
	}
	if out.Params, err = walkMap(w, view.Params, "params"); err != nil {
		return RequestView{}, err
	}
	return out, nil
}

func walkMap(w *walker, m map[string]any, path string) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	v, err := w.walk(m, path, 0)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func depthOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxDepth
	}
	return n
}

// XSS neutralizes HTML markup in every string field.
type XSS struct {
	MaxDepth int
}

func (XSS) Name() string { return "xss" }

func (s XSS) Apply(_ context.Context, view RequestView) (RequestView, error) {
	w := newWalker(s.Name(), depthOrDefault(s.MaxDepth))
	w.str = NeutralizeXSS
	return applyWalker(w, view)
}

// IsOperatorKey reports whether a key could be interpreted as a query
// operator by the document store: keys starting with '$' or containing '.'.
func IsOperatorKey(key string) bool {
	return strings.HasPrefix(key, "$") || strings.Contains(key, ".")
}

// Injection removes operator keys at every nesting depth. Every removed key
// produces exactly one warning and one call to OnRemove.
type Injection struct {
	MaxDepth int
	Logger   *slog.Logger
	OnRemove func(ctx context.Context, field string)
}

func (Injection) Name() string { return "operator_injection" }

func (s Injection) Apply(ctx context.Context, view RequestView) (RequestView, error) {
	w := newWalker(s.Name(), depthOrDefault(s.MaxDepth))
	w.keep = func(path, key string) bool {
		if !IsOperatorKey(key) {
			return true
		}
		field := join(path, key)
		if s.Logger != nil {
			s.Logger.WarnContext(ctx, "removed operator key from request",
				logger.Event("sanitize_operator_removed"),
				logger.Stage(s.Name()),
				logger.Field(field),
			)
		}
		if s.OnRemove != nil {
			s.OnRemove(ctx, field)
		}
		return false
	}
	return applyWalker(w, view)
}

// Trim removes leading and trailing whitespace from every string field.
type Trim struct {
	MaxDepth int
}

func (Trim) Name() string { return "trim" }

func (s Trim) Apply(_ context.Context, view RequestView) (RequestView, error) {
	w := newWalker(s.Name(), depthOrDefault(s.MaxDepth))
	w.str = strings.TrimSpace
	return applyWalker(w, view)
}

// DefaultParamWhitelist lists query keys allowed to repeat.
var DefaultParamWhitelist = []string{"filter", "sort", "limit", "page", "select", "populate"}

// ParamPollution collapses repeated query parameters to their last value.
// Whitelisted keys keep every value. Body and path parameters are untouched.
type ParamPollution struct {
	Whitelist []string
}

func (ParamPollution) Name() string { return "param_pollution" }

func (s ParamPollution) Apply(_ context.Context, view RequestView) (RequestView, error) {
	if len(view.Query) == 0 {
		return view, nil
	}
	query := make(map[string]any, len(view.Query))
	for k, v := range view.Query {
		list, ok := v.([]any)
		if ok && len(list) > 0 && !slices.Contains(s.Whitelist, k) {
			v = list[len(list)-1]
		}
		query[k] = v
	}
	view.Query = query
	return view, nil
}
