package guidancedesk

import "errors"

var (
	// ErrValidation is returned for malformed input, such as a missing or
	// unusable email address.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound is returned when no matching OTP, credential, or session
	// exists. At the HTTP boundary an OTP miss surfaces as "Invalid OTP".
	ErrNotFound = errors.New("not found")
	// ErrExpired is returned when a time-boxed resource is past its
	// stored expiry.
	ErrExpired = errors.New("expired")
	// ErrInvalidCredentials is returned when a password does not match the
	// stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidState is returned when an operation requires a different
	// account state, such as password setup on an already-set account.
	ErrInvalidState = errors.New("invalid account state")
	// ErrDelivery wraps mail collaborator failures.
	ErrDelivery = errors.New("mail delivery failed")
	// ErrStore wraps document-store failures.
	ErrStore = errors.New("document store error")
	// ErrTokenInvalid is returned when a session token fails signature or
	// claim checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEngineNotReady is returned when the engine is used before Build
	// wired its collaborators.
	ErrEngineNotReady = errors.New("engine not initialized")
)
