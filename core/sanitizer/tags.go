package sanitizer

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// ErrNotStructPointer is returned by SanitizeStruct for non-pointer-to-struct input.
var ErrNotStructPointer = errors.New("sanitizer: must pass a pointer to struct")

var (
	registryMu sync.RWMutex
	registry   = map[string]func(string) string{
		"trim":        TrimSpace,
		"lower":       strings.ToLower,
		"trim_lower":  TrimToLower,
		"single_line": SingleLine,
		"no_spaces":   RemoveExtraWhitespace,
		"no_control":  RemoveControlChars,
		"nfkc":        NormalizeUnicode,
		"xss":         NeutralizeXSS,

		"text": func(s string) string {
			return RemoveExtraWhitespace(TrimSpace(s))
		},
		"email": func(s string) string {
			return TrimToLower(RemoveControlChars(s))
		},
	}
)

// RegisterSanitizer adds a custom sanitizer function to the registry
func RegisterSanitizer(name string, fn func(string) string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// SanitizeStruct applies sanitization to struct fields based on their
// `sanitize:"trim,lower,max:100"` tags. Nested structs are always visited.
func SanitizeStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotStructPointer
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return ErrNotStructPointer
	}

	sanitizeStructFields(rv)
	return nil
}

func sanitizeStructFields(rv reflect.Value) {
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}

		tag := rt.Field(i).Tag.Get("sanitize")
		if tag == "-" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if tag != "" {
				field.SetString(applySanitizers(field.String(), tag))
			}

		case reflect.Pointer:
			if field.IsNil() {
				continue
			}
			elem := field.Elem()
			switch elem.Kind() {
			case reflect.String:
				if tag != "" {
					elem.SetString(applySanitizers(elem.String(), tag))
				}
			case reflect.Struct:
				sanitizeStructFields(elem)
			}

		case reflect.Struct:
			sanitizeStructFields(field)

		case reflect.Slice:
			if tag != "" && field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					elem.SetString(applySanitizers(elem.String(), tag))
				}
			}
		}
	}
}

func applySanitizers(value string, tag string) string {
	result := value

	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range strings.Split(tag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if limit, ok := strings.CutPrefix(name, "max:"); ok {
			if n, err := strconv.Atoi(limit); err == nil && n > 0 {
				result = MaxLength(result, n)
			}
			continue
		}

		if fn, ok := registry[name]; ok {
			result = fn(result)
		}
	}

	return result
}
