package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes validator report json (or form) names instead of Go
// field names
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
}

// ValidationErrors converts binding failures into a ValidationError. Errors
// that are not validator errors (malformed JSON, bad types) become a single
// "body" violation.
func ValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewValidationError(shared.FieldError{Field: "body", Message: "malformed request: " + err.Error()})
	}

	fields := make(shared.FieldErrors, 0, len(verrs))
	for _, e := range verrs {
		fields.Add(fieldPath(e), validationMessage(e))
	}
	return fields.Err()
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].unit"
// becomes "items[0].unit"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "datetime":
		return "Must match the layout " + e.Param()
	default:
		return "Invalid value"
	}
}
