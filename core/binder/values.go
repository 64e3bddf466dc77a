package binder

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// Path binds `path:"name"` fields from the route wildcards (r.PathValue).
func Path() Binder {
	return func(r *http.Request, v any) error {
		return bindFields(v, "path", ErrFailedToParsePath, func(name string) []string {
			if s := r.PathValue(name); s != "" {
				return []string{s}
			}
			return nil
		})
	}
}

// Query binds `query:"name"` fields. Slice fields take repeated or
// comma-separated values.
func Query() Binder {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindFields(v, "query", ErrFailedToParseQuery, func(name string) []string {
			return q[name]
		})
	}
}

// bindFields sets every tagged field of the struct v points to. Fields
// without the tag are left alone so several binders can fill one struct.
func bindFields(v any, tag string, bindErr error, lookup func(name string) []string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rv.NumField() {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
		if name == "" || name == "-" {
			continue
		}

		values := lookup(name)
		if len(values) == 0 {
			continue
		}
		if err := setField(field, values); err != nil {
			return fmt.Errorf("%w: %s: %v", bindErr, name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, values []string) error {
	switch field.Kind() {
	case reflect.Pointer:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setField(field.Elem(), values)

	case reflect.Slice:
		var all []string
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				all = append(all, strings.TrimSpace(part))
			}
		}
		slice := reflect.MakeSlice(field.Type(), len(all), len(all))
		for i, s := range all {
			if err := setField(slice.Index(i), []string{s}); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	value := values[0]
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid int value %q", value)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid uint value %q", value)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value %q", value)
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool value %q", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type %s", field.Kind())
	}
	return nil
}
