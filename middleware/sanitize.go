package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"slices"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/sanitizer"
)

// sanitizedContextKey is used as a key for storing the sanitized request view in request context.
type sanitizedContextKey struct{}

// SanitizeConfig configures the request sanitization middleware.
type SanitizeConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Pipeline runs the sanitization stages (default: sanitizer.New())
	Pipeline *sanitizer.Pipeline
	// Logger receives rejected payload warnings (default: slog.Default())
	Logger *slog.Logger
}

// Sanitize runs every request's body, query and path parameters through the
// sanitization pipeline before the handler sees them.
//
// JSON and form bodies are decoded, sanitized and re-encoded onto the request,
// so handlers can keep reading r.Body. The sanitized view is also available
// through GetSanitized. Malformed JSON and payloads the pipeline rejects
// (cycles, excessive nesting) end the request with 400.
func Sanitize[C handler.Context](cfg SanitizeConfig) handler.Middleware[C] {
	if cfg.Pipeline == nil {
		cfg.Pipeline = sanitizer.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()

			view, kind, err := readView(ctx)
			if err != nil {
				if IsBodyTooLarge(err) {
					return response.Error(response.ErrRequestEntityTooLarge)
				}
				cfg.Logger.WarnContext(req.Context(), "malformed request payload",
					logger.Component("sanitize"),
					logger.Event("sanitize_rejected"),
					logger.Path(req.URL.Path),
					logger.Error(err))
				return response.Error(response.ErrSanitization.WithError(err))
			}

			out, err := cfg.Pipeline.Process(req.Context(), view)
			if err != nil {
				attrs := []any{
					logger.Component("sanitize"),
					logger.Event("sanitize_rejected"),
					logger.Path(req.URL.Path),
					logger.Error(err),
				}
				var serr *sanitizer.Error
				if errors.As(err, &serr) {
					attrs = append(attrs, logger.Stage(serr.Stage), logger.Field(serr.Path))
				}
				cfg.Logger.WarnContext(req.Context(), "request payload rejected", attrs...)
				return response.Error(response.ErrSanitization.WithError(err))
			}

			if err := writeView(ctx, out, view, kind); err != nil {
				return response.Error(response.ErrInternalServerError.WithError(err))
			}
			ctx.SetValue(sanitizedContextKey{}, out)

			return next(ctx)
		}
	}
}

// GetSanitized retrieves the sanitized request view from the request context.
func GetSanitized(ctx handler.Context) (sanitizer.RequestView, bool) {
	v, ok := ctx.Value(sanitizedContextKey{}).(sanitizer.RequestView)
	return v, ok
}

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyJSON
	bodyForm
)

func readView(ctx handler.Context) (sanitizer.RequestView, bodyKind, error) {
	req := ctx.Request()
	view := sanitizer.RequestView{Query: valuesToMap(req.URL.Query())}

	if ps, ok := any(ctx).(handler.ParamSetter); ok && len(ps.Params()) > 0 {
		view.Params = make(map[string]any, len(ps.Params()))
		for k, v := range ps.Params() {
			view.Params[k] = v
		}
	}

	if req.Body == nil || req.Body == http.NoBody {
		return view, bodyNone, nil
	}

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json", "":
	case "application/x-www-form-urlencoded":
	default:
		// Binary and multipart payloads are not sanitized.
		return view, bodyNone, nil
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return view, bodyNone, err
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return view, bodyNone, nil
	}

	if mediaType == "application/x-www-form-urlencoded" {
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return view, bodyNone, err
		}
		view.Body = valuesToMap(form)
		return view, bodyForm, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return view, bodyNone, err
	}
	if dec.More() {
		return view, bodyNone, errors.New("unexpected data after JSON value")
	}
	view.Body = body
	return view, bodyJSON, nil
}

func writeView(ctx handler.Context, out, in sanitizer.RequestView, kind bodyKind) error {
	req := ctx.Request()

	switch kind {
	case bodyJSON:
		data, err := json.Marshal(out.Body)
		if err != nil {
			return err
		}
		setBody(req, data)
	case bodyForm:
		m, _ := out.Body.(map[string]any)
		setBody(req, []byte(mapToValues(m).Encode()))
	}

	if len(in.Query) > 0 {
		req.URL.RawQuery = mapToValues(out.Query).Encode()
	}

	if ps, ok := any(ctx).(handler.ParamSetter); ok {
		for _, k := range slices.Sorted(maps.Keys(in.Params)) {
			v, _ := out.Params[k].(string)
			ps.SetParam(k, v)
		}
	}
	return nil
}

func setBody(req *http.Request, data []byte) {
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.ContentLength = int64(len(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// valuesToMap turns single values into strings and repeated ones into lists.
func valuesToMap(v url.Values) map[string]any {
	if len(v) == 0 {
		return nil
	}
	m := make(map[string]any, len(v))
	for k, vals := range v {
		if len(vals) == 1 {
			m[k] = vals[0]
			continue
		}
		list := make([]any, len(vals))
		for i, s := range vals {
			list[i] = s
		}
		m[k] = list
	}
	return m
}

func mapToValues(m map[string]any) url.Values {
	v := make(url.Values, len(m))
	for k, val := range m {
		switch x := val.(type) {
		case string:
			v.Set(k, x)
		case []any:
			for _, item := range x {
				if s, ok := item.(string); ok {
					v.Add(k, s)
				}
			}
		}
	}
	return v
}
