// Package v1 provides storefront business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors for the checkout and proxy
// failures the handlers need to tell apart. They should be wrapped with
// context using fmt.Errorf("%w") when returned from business logic
// methods, and checked in handlers with errors.Is.
package v1

import "errors"

// Sentinel errors for storefront operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrMinimumAmount indicates an order amount below the gateway
	// minimum of 100 paise. Rejected before any external call.
	// HTTP Status: 400 Bad Request
	ErrMinimumAmount = errors.New("amount below minimum order value")

	// ErrSignatureMismatch indicates the checkout callback signature
	// does not match the expected HMAC.
	// HTTP Status: 400 Bad Request
	ErrSignatureMismatch = errors.New("payment signature verification failed")

	// ErrOrderConfirmationFailed indicates the payment was verified but
	// the commerce backend did not confirm the order. Money has moved
	// while the order record has not: this state is surfaced to the
	// user and must never be retried automatically.
	// HTTP Status: 502 Bad Gateway
	ErrOrderConfirmationFailed = errors.New("payment verified but order confirmation failed")

	// ErrGatewayUnavailable indicates the payment gateway rejected or
	// failed the order creation call.
	// HTTP Status: 502 Bad Gateway
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
