package validator

import (
	"fmt"
	"net/mail"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

func newError(field, key, message string, values map[string]any) ValidationError {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return ValidationError{
		Field:             field,
		Message:           message,
		TranslationKey:    "validation." + key,
		TranslationValues: values,
	}
}

func intParam(params []string, i int) (int, bool) {
	if len(params) <= i {
		return 0, false
	}
	n, err := strconv.Atoi(params[i])
	return n, err == nil
}

// invalidParams turns a misconfigured tag into a failing rule instead of a panic.
func invalidParams(field, rule string) Rule {
	return Rule{
		Check: func() bool { return false },
		Error: newError(field, "invalid_rule", fmt.Sprintf("has an invalid %q rule", rule), nil),
	}
}

// size measures strings in runes, collections by length and numbers by value.
func size(value reflect.Value) (float64, bool) {
	switch value.Kind() {
	case reflect.String:
		return float64(utf8.RuneCountInString(value.String())), true
	case reflect.Slice, reflect.Map, reflect.Array:
		return float64(value.Len()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(value.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(value.Uint()), true
	case reflect.Float32, reflect.Float64:
		return value.Float(), true
	}
	return 0, false
}

func sizeUnit(value reflect.Value) string {
	switch value.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		return " items"
	}
	return ""
}

func requiredValidator(field string, value reflect.Value, _ []string) Rule {
	return Rule{
		Check: func() bool {
			switch value.Kind() {
			case reflect.String:
				return strings.TrimSpace(value.String()) != ""
			case reflect.Slice, reflect.Map, reflect.Array:
				return value.Len() > 0
			case reflect.Pointer, reflect.Interface:
				return !value.IsNil()
			default:
				return !value.IsZero()
			}
		},
		Error: newError(field, "required", "is required", nil),
	}
}

func minValidator(field string, value reflect.Value, params []string) Rule {
	limit, ok := intParam(params, 0)
	if !ok {
		return invalidParams(field, "min")
	}
	return Rule{
		Check: func() bool {
			n, ok := size(value)
			return ok && n >= float64(limit)
		},
		Error: newError(field, "min",
			fmt.Sprintf("must be at least %d%s", limit, sizeUnit(value)),
			map[string]any{"min": limit}),
	}
}

func maxValidator(field string, value reflect.Value, params []string) Rule {
	limit, ok := intParam(params, 0)
	if !ok {
		return invalidParams(field, "max")
	}
	return Rule{
		Check: func() bool {
			n, ok := size(value)
			return ok && n <= float64(limit)
		},
		Error: newError(field, "max",
			fmt.Sprintf("must be at most %d%s", limit, sizeUnit(value)),
			map[string]any{"max": limit}),
	}
}

func lenValidator(field string, value reflect.Value, params []string) Rule {
	want, ok := intParam(params, 0)
	if !ok {
		return invalidParams(field, "len")
	}
	return Rule{
		Check: func() bool {
			n, ok := size(value)
			return ok && sizeUnit(value) != "" && n == float64(want)
		},
		Error: newError(field, "len",
			fmt.Sprintf("must be exactly %d%s long", want, sizeUnit(value)),
			map[string]any{"len": want}),
	}
}

func emailValidator(field string, value reflect.Value, _ []string) Rule {
	return Rule{
		Check: func() bool {
			s := value.String()
			if s == "" {
				return true
			}
			addr, err := mail.ParseAddress(s)
			return err == nil && addr.Address == s
		},
		Error: newError(field, "email", "must be a valid email address", nil),
	}
}

func alphanumValidator(field string, value reflect.Value, _ []string) Rule {
	return Rule{
		Check: func() bool {
			for _, r := range value.String() {
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					return false
				}
			}
			return true
		},
		Error: newError(field, "alphanum", "must contain only letters and digits", nil),
	}
}

func inValidator(field string, value reflect.Value, params []string) Rule {
	return Rule{
		Check: func() bool {
			s := fmt.Sprint(value.Interface())
			return s == "" || slices.Contains(params, s)
		},
		Error: newError(field, "in",
			fmt.Sprintf("must be one of: %s", strings.Join(params, ", ")),
			map[string]any{"values": params}),
	}
}

// hexValidator checks for a hexadecimal string, optionally of a fixed length
// (hex:24 for document ids).
func hexValidator(field string, value reflect.Value, params []string) Rule {
	want, hasLen := intParam(params, 0)
	return Rule{
		Check: func() bool {
			s := value.String()
			if s == "" {
				return true
			}
			if hasLen && len(s) != want {
				return false
			}
			for _, r := range s {
				if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
					return false
				}
			}
			return true
		},
		Error: newError(field, "hex", "must be a valid identifier", nil),
	}
}
