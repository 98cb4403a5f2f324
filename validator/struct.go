// Package validator wraps go-playground/validator and reports failures keyed
// by JSON field name.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

var errorMessages = map[string]string{
	"required": "The field '%s' is required.",
	"min":      "The field '%s' must be at least %s.",
	"max":      "The field '%s' must be no more than %s.",
	"lte":      "The field '%s' must be less than or equal to %s.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"gt":       "The field '%s' must be greater than %s.",
	"lt":       "The field '%s' must be less than %s.",
	"oneof":    "The field '%s' must be one of [%s].",
	"url":      "The field '%s' must be a valid URL.",
	"dive":     "The field '%s' contains an invalid item.",
}

// parseMessage constructs a friendly error message for a validation tag.
func parseMessage(field string, e validator.FieldError) string {
	if msg, ok := errorMessages[e.Tag()]; ok {
		switch strings.Count(msg, "%s") {
		case 1:
			return fmt.Sprintf(msg, field)
		case 2:
			return fmt.Sprintf(msg, field, e.Param())
		}
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", field, e.Tag())
}

// ValidateStruct validates s and returns a map of JSON field names to
// messages. The map is empty when s is valid.
func ValidateStruct(s any) map[string]string {
	out := make(map[string]string)

	err := validate.Struct(s)
	if err == nil {
		return out
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		out["_"] = err.Error()
		return out
	}
	for _, e := range errs {
		field := fieldPath(e.Namespace())
		out[field] = parseMessage(field, e)
	}
	return out
}

// fieldPath drops the root struct name from a namespace like "createBody.skills[0]".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// IsEmpty reports whether s is blank after trimming.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
