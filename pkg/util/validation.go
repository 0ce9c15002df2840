package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the accepted calendar date format for CLI and API input.
const DateLayout = "2006-01-02"

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return NewValidationError("invalid email address", map[string]any{"email": email})
	}
	return nil
}

// ValidatePhone accepts ten-digit phone numbers.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return NewValidationError("phone must be a 10-digit number", map[string]any{"phone": phone})
	}
	return nil
}

// ValidateNonEmpty rejects empty or blank strings.
func ValidateNonEmpty(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fmt.Sprintf("%s must be a non-empty string", field), map[string]any{"field": field})
	}
	return nil
}

// ValidatePositive rejects zero and negative amounts.
func ValidatePositive(value float64, field string) error {
	if value <= 0 {
		return NewValidationError(fmt.Sprintf("%s must be a positive number", field), map[string]any{"field": field})
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value, field string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, NewValidationError(
			fmt.Sprintf("%s must be a valid date in YYYY-MM-DD format", field),
			map[string]any{"field": field, "value": value},
		)
	}
	return parsed, nil
}
