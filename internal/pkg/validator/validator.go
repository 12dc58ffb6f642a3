// Package validator checks request DTOs against their validate tags and
// reports failures as a field-to-rule map, which the handlers hand back to
// the client as the details object of a VALIDATION_ERROR response.
package validator

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate runs the struct's validate tags. It returns nil when every field
// passes, otherwise a map from field name to the rule it broke, for example
// {"Username": "min"}.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
