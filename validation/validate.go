package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/samuelizer/errors"
)

// FieldError describes one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validatorInstance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(tagName)
	return v
})

func tagName(fld reflect.StructField) string {
	for _, key := range []string{"mapstructure", "json", "form"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(fld.Name)
}

// Validate validates a struct using `validate` tags.
func Validate(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return errors.InvalidInput("", err.Error())
	}

	fields := make([]FieldError, 0, len(validationErrors))
	lines := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fe := FieldError{Field: fieldPath(e.Namespace()), Message: formatValidationError(e)}
		fields = append(fields, fe)
		lines = append(lines, fe.Field+" "+fe.Message)
	}

	return errors.InvalidInput(fields[0].Field, strings.Join(lines, "; ")).WithDetail("fields", fields)
}

// fieldPath drops the root struct name and squashed (untagged) segments.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// messages maps validator tags to templates; %s is the tag parameter.
var messages = map[string]string{
	"required":      "is required",
	"gte":           "must be greater than or equal to %s",
	"gt":            "must be greater than %s",
	"lte":           "must be less than or equal to %s",
	"url":           "must be a valid URL",
	"http_url":      "must be a valid URL",
	"oneof":         "must be one of: %s",
	"required_if":   "is required when %s",
	"hostname_port": "must be host:port",
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "min", "max":
		bound := map[string]string{"min": "at least", "max": "at most"}[e.Tag()]
		msg := "must be " + bound + " " + e.Param()
		if e.Kind() == reflect.String {
			msg += " characters"
		}
		return msg
	}
	tmpl, ok := messages[e.Tag()]
	if !ok {
		return "is invalid (" + e.Tag() + ")"
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, e.Param())
	}
	return tmpl
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
