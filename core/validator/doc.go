// Package validator validates decoded request DTOs using struct tags.
//
//	type createComment struct {
//		Content string `json:"content" validate:"required;max:500"`
//		Parent  string `json:"parentId" validate:"hex:24"`
//	}
//
//	if err := validator.ValidateStruct(&in); err != nil {
//		return response.Error(err) // rendered as 400 "Validation Error"
//	}
//
// Rules are separated by ';' and take comma separated parameters after ':'.
// Built-in rules: required, min, max, len, email, alphanum, in, hex.
// Field paths follow json tag names. A failing required rule skips the
// remaining rules for that field.
//
// ValidationErrors implements Unwrap() []error and each ValidationError
// exposes FieldPath, which is what core/response uses to build the errors
// list of the envelope. Custom rules are added with RegisterValidator.
package validator
