package services

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrStaleStatus           = errors.New("order status changed concurrently")
	ErrTotalMismatch         = errors.New("order total does not match items")
	ErrDuplicateOrderNumber  = errors.New("order number already taken")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAssetNotFound         = errors.New("asset not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrPaymentMethodDisabled = errors.New("payment method disabled")
)

// ValidationError carries a message that is safe to show to the customer as is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// LoginThrottledError tells the caller how long to wait before the next attempt.
type LoginThrottledError struct {
	WaitSeconds int
}

func (e *LoginThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %ds", e.WaitSeconds)
}
