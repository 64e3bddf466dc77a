package validator

import (
	"reflect"
	"strings"
	"sync"
)

// ValidatorFunc is a function that validates a value and returns a Rule
type ValidatorFunc func(field string, value reflect.Value, params []string) Rule

var (
	registryMu sync.RWMutex
	registry   = map[string]ValidatorFunc{
		"required": requiredValidator,
		"min":      minValidator,
		"max":      maxValidator,
		"len":      lenValidator,
		"email":    emailValidator,
		"alphanum": alphanumValidator,
		"in":       inValidator,
		"hex":      hexValidator,
	}
)

// RegisterValidator adds a custom validator function to the registry
func RegisterValidator(name string, fn ValidatorFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// ValidateStruct validates a struct based on its `validate` tags.
// Rules are separated by ';', parameters follow ':' and are comma separated:
//
//	Content string `json:"content" validate:"required;max:500"`
//
// Field paths use the json tag name when present. The returned error is
// ValidationErrors when any rule fails.
func ValidateStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotStructPointer
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return ErrNotStructPointer
	}

	var errs ValidationErrors
	validateStructFields(rv, "", &errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func validateStructFields(rv reflect.Value, prefix string, errs *ValidationErrors) {
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}

		structField := rt.Field(i)
		tag := structField.Tag.Get("validate")
		if tag == "-" {
			continue
		}

		path := fieldName(structField)
		if prefix != "" {
			path = prefix + "." + path
		}

		switch {
		case field.Kind() == reflect.Struct && tag == "":
			validateStructFields(field, path, errs)

		case field.Kind() == reflect.Pointer:
			switch {
			case field.IsNil():
				if tag != "" {
					validateField(path, field, tag, errs)
				}
			case field.Elem().Kind() == reflect.Struct && tag == "":
				validateStructFields(field.Elem(), path, errs)
			case tag != "":
				validateField(path, field.Elem(), tag, errs)
			}

		case tag != "":
			validateField(path, field, tag, errs)
		}
	}
}

func fieldName(sf reflect.StructField) string {
	if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return sf.Name
}

func validateField(path string, field reflect.Value, tag string, errs *ValidationErrors) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, ruleStr := range strings.Split(tag, ";") {
		ruleStr = strings.TrimSpace(ruleStr)
		if ruleStr == "" {
			continue
		}

		name, paramStr, _ := strings.Cut(ruleStr, ":")
		name = strings.TrimSpace(name)

		var params []string
		if paramStr = strings.TrimSpace(paramStr); paramStr != "" {
			params = strings.Split(paramStr, ",")
			for i := range params {
				params[i] = strings.TrimSpace(params[i])
			}
		}

		fn, ok := registry[name]
		if !ok {
			continue
		}
		if rule := fn(path, field, params); !rule.Check() {
			errs.Add(rule.Error)
			// A missing value makes the remaining rules noise.
			if name == "required" {
				return
			}
		}
	}
}
