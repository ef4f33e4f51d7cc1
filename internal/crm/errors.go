package crm

import "errors"

var (
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrInvalidPhone      = errors.New("invalid phone number format")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidStock      = errors.New("stock cannot be negative")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrNoValidProducts   = errors.New("no valid products found")
	ErrInvalidProductIDs = errors.New("one or more product IDs are invalid")
	ErrNotFound          = errors.New("not found")
)
