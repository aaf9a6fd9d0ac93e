package validate

import (
	"strings"

	"github.com/straintree/straintree-backend/internal/apperror"
)

// Password enforces the registration policy: at least 8 characters with one
// uppercase letter, one lowercase letter and one digit.
func Password(p string) error {
	if len(p) < 8 {
		return apperror.Validation("Password must be at least 8 characters long")
	}
	if !strings.ContainsFunc(p, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		return apperror.Validation("Password must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(p, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		return apperror.Validation("Password must contain at least one lowercase letter")
	}
	if !strings.ContainsFunc(p, func(r rune) bool { return r >= '0' && r <= '9' }) {
		return apperror.Validation("Password must contain at least one digit")
	}
	return nil
}

// Required trims value and errors with "<field> is required" when empty.
func Required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperror.Validation(field + " is required")
	}
	return v, nil
}
