package models

import (
	"errors"
	"strings"
)

const (
	ErrMsgInvalidCategory     = "Invalid category"
	ErrMsgDescriptionRequired = "Description is required"
)

// ValidationError is returned for reports that the client has to fix
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateReport checks a submission and returns its normalized fields.
// The category check runs first so an unknown category is always reported as such.
func ValidateReport(category, description string) (Category, string, error) {
	c, ok := ParseCategory(category)
	if !ok {
		return "", "", &ValidationError{Field: "category", Message: ErrMsgInvalidCategory}
	}
	d := strings.TrimSpace(description)
	if d == "" {
		return "", "", &ValidationError{Field: "description", Message: ErrMsgDescriptionRequired}
	}
	return c, d, nil
}
