package crm

import (
	"fmt"
	"regexp"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// +15551234567 style (7-15 digits) atau 555-123-4567
	phoneRe = regexp.MustCompile(`^\+?\d{7,15}$|^\d{3}-\d{3}-\d{4}$`)
)

// ValidateEmail checks syntax only; uniqueness is the store's problem.
func ValidateEmail(s string) error {
	if !emailRe.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	return nil
}

// ValidatePhone accepts an empty phone (the field is optional).
func ValidatePhone(s string) error {
	if s == "" {
		return nil
	}
	if !phoneRe.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, s)
	}
	return nil
}

func ValidatePrice(cents int) error {
	if cents <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPrice, cents)
	}
	return nil
}

func ValidateStock(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidStock, n)
	}
	return nil
}
