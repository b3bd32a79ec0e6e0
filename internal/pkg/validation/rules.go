package validation

import (
	"strings"
	"unicode/utf8"
)

// Validation limits shared by the chat wizard, the services and the HTTP DTOs
const (
	EventTitleMaxLength     = 255
	WorkspaceTitleMaxLength = 100
)

// StringValidation checks a string against length rules. Lengths count runes, so titles in
// any script get the same budget.
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	blank := strings.TrimSpace(v.Value) == ""
	if v.Required && blank {
		return false
	}

	// Skip other validations for empty optional values
	if !v.Required && v.Value == "" {
		return true
	}

	n := utf8.RuneCountInString(v.Value)
	if v.MinLen > 0 && n < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return false
	}
	return true
}

// Title trims a title and reports whether it is non-blank and at most max runes long.
func Title(value string, max int) (string, bool) {
	value = strings.TrimSpace(value)
	return value, NewStringValidation(value).WithMaxLength(max).Validate()
}
