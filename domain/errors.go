package domain

import "errors"

// Validation errors
var (
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidCode     = errors.New("otp code must be 6 digits")
	ErrEmptyUpdate     = errors.New("no profile fields to update")
	ErrInvalidLanguage = errors.New("unsupported language")
)

// OTP errors
var (
	ErrOTPNotFound = errors.New("otp expired or not found")
	ErrOTPInvalid  = errors.New("invalid otp code")
)

// Rate limit errors
var (
	ErrRateLimited = errors.New("too many otp requests")
)

// User errors
var (
	ErrUserNotFound = errors.New("user not found")
)

// Token errors. Validation failures are reported uniformly as ErrTokenInvalid
// so callers cannot distinguish expiry from tampering.
var (
	ErrTokenInvalid = errors.New("invalid token")
)
