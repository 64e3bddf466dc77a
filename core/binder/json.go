package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// JSON binds the request body. Unknown fields are ignored; an empty body,
// a non-JSON content type or trailing data after the value are errors.
// Body size is bounded by the BodyLimit middleware, not here.
func JSON() Binder {
	return func(r *http.Request, v any) error {
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType != "application/json" {
			return fmt.Errorf("%w: expected application/json", ErrUnsupportedMediaType)
		}
		if r.Body == nil {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}

		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
			}
			var tooLarge interface{ StatusCode() int }
			if errors.As(err, &tooLarge) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		if dec.More() {
			return fmt.Errorf("%w: unexpected data after JSON value", ErrFailedToParseJSON)
		}
		return nil
	}
}
