package domain

import "context"

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// UpdateFields applies a partial update by column name and always
	// touches updated_at.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// OTPStore holds a short-lived one-time code per phone number
type OTPStore interface {
	// Put stores code for phone with the configured TTL, overwriting any
	// prior unexpired code for the same phone.
	Put(ctx context.Context, phone, code string) error
	// Get returns the live code, or ErrOTPNotFound if absent or expired.
	Get(ctx context.Context, phone string) (string, error)
	// Delete removes any stored code for phone; idempotent.
	Delete(ctx context.Context, phone string) error
}

// TokenService defines session token operations
type TokenService interface {
	Mint(user *User) (string, error)
	Validate(token string) (*TokenClaims, error)
}

// NotificationService defines outbound messaging operations
type NotificationService interface {
	SendSMS(to, message string) error
}

// RateLimiter gates repeated requests per caller key
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// AuthService defines the phone/OTP authentication business logic
type AuthService interface {
	RequestCode(ctx context.Context, phone, countryCode string) (*CodeRequest, error)
	VerifyCode(ctx context.Context, phone, code string) (*VerifyResult, error)
	GetProfile(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)
}
