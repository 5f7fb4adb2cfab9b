package validation

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/injectkit/errors"
)

// FieldError describes a validation failure for a single field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	validate *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator instance so callers can register
// custom tags.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

// Struct validates s using its `validate` tags. It returns nil or an
// *errors.AppError whose "fields" detail holds the []FieldError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed").WithCause(err)
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := trimRoot(e.Namespace())
		message := describe(e)
		fieldErrors = append(fieldErrors, FieldError{Field: field, Message: message})
		messages = append(messages, field+": "+message)
	}

	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", fieldErrors)
}

// fieldName resolves the reported name of a struct field from its tags.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "yaml", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(fld.Name)
}

// trimRoot drops the top-level struct name from a validator namespace.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	case "hostname_port":
		return "must be a host:port pair"
	case "startswith":
		return "must start with " + e.Param()
	default:
		return "failed the " + e.Tag() + " check"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
