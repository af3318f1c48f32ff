package domain

import "time"

// UserType distinguishes rider and driver accounts
type UserType string

const (
	UserTypeRider  UserType = "rider"
	UserTypeDriver UserType = "driver"
)

// Language is the user's preferred UI language
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// User represents a user in the system
type User struct {
	ID              string
	Phone           string
	FirstName       string
	LastName        string
	Email           string
	ProfilePhoto    string
	UserType        UserType
	Rating          float64
	TotalRides      int
	IsVerified      bool
	IsActive        bool
	ProfileComplete bool
	Language        Language
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OTPEntry represents a stored one-time code for a phone number
type OTPEntry struct {
	Phone     string
	Code      string
	ExpiresAt time.Time
}

// TokenClaims represents session token claims
type TokenClaims struct {
	UserID    string   `json:"user_id"`
	Phone     string   `json:"phone"`
	UserType  UserType `json:"user_type"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
}

// CodeRequest represents the acknowledgement of a send-otp call
type CodeRequest struct {
	Phone    string
	DemoMode bool
	Hint     string
}

// VerifyResult represents the outcome of a successful code verification
type VerifyResult struct {
	User      *User
	Token     string
	IsNewUser bool
	ExpiresIn int64
}

// ProfileUpdate carries the mutable profile fields; nil means "not supplied"
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	ProfilePhoto *string
	Language     *Language
}

// Empty reports whether no field was supplied
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.ProfilePhoto == nil && p.Language == nil
}
