package domain

import "errors"

// Domain errors
var (
	// Product errors
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidAction     = errors.New("invalid stock action")
	ErrInsufficientStock = errors.New("not enough stock available")

	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
	ErrAuthFailed    = errors.New("invalid username or password")

	// Validation errors
	ErrValidation       = errors.New("missing or malformed field")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrInvalidProductID = errors.New("invalid product id")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidProductID) ||
		errors.Is(err, ErrInvalidQuantity)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateUser)
}

// IsAuthError checks if the error is an authentication error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrSessionExpired)
}
