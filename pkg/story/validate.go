package story

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names so errors line up with what the model produced.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("failure_reason", func(fl validator.FieldLevel) bool {
		return FailureReason(fl.Field().String()).IsValid()
	})

	return v
}

// fieldError converts the first validator failure into an InvalidValueError
// addressed by the JSON path of the field.
func fieldError(err error, prefix string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]

	// Namespace is "<Struct>.<json>..."; drop the struct name.
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if prefix != "" {
		path = prefix + "." + path
	}

	var reason string
	switch fe.Tag() {
	case "min":
		reason = "must be at least " + fe.Param()
	case "max":
		reason = "must be at most " + fe.Param()
	case "failure_reason":
		reason = "must be one of " + strings.Join(AllowedFailureReasons(), ", ")
	default:
		reason = "failed " + fe.Tag() + " check"
	}
	return &InvalidValueError{Field: path, Reason: reason}
}
