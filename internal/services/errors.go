package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotServiceable is the business rejection: the carrier confirmed it
	// does not deliver to the destination pincode.
	ErrNotServiceable = errors.New("location not serviceable")

	// ErrEmptyCart rejects checkout for a customer with no cart items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrAlreadyShipped rejects shipment creation for an order that already
	// carries a tracking reference.
	ErrAlreadyShipped = errors.New("shipment already created for order")

	// ErrNoTracking rejects tracking for an order without a shipment yet.
	ErrNoTracking = errors.New("order has no tracking reference yet")

	// ErrInvalidCredentials covers login failures without distinguishing
	// unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports malformed or missing input. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PaymentMismatchError reports cart items incompatible with the chosen
// payment method, naming the offending items.
type PaymentMismatchError struct {
	Method string
	Items  []string
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("payment method %q not available for: %s", e.Method, strings.Join(e.Items, ", "))
}

// GatewayError wraps a payment vendor failure. Surfaced to the caller; the
// order is left in a terminal failed state, never retried automatically.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// CarrierError wraps a shipping vendor failure. It never rolls back order
// state that already succeeded.
type CarrierError struct {
	Op  string
	Err error
}

func (e *CarrierError) Error() string {
	return fmt.Sprintf("carrier %s failed: %v", e.Op, e.Err)
}

func (e *CarrierError) Unwrap() error {
	return e.Err
}
