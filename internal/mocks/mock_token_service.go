package mocks

import (
	"github.com/Kuany4953/wasil-sub000/domain"
)

// MockTokenService implements domain.TokenService for testing
type MockTokenService struct {
	MintFunc     func(user *domain.User) (string, error)
	ValidateFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// Mint produces a token for the user
func (m *MockTokenService) Mint(user *domain.User) (string, error) {
	if m.MintFunc != nil {
		return m.MintFunc(user)
	}
	// Default behavior: fixed token
	return "test-token", nil
}

// Validate parses a token
func (m *MockTokenService) Validate(token string) (*domain.TokenClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	// Default behavior: invalid
	return nil, domain.ErrTokenInvalid
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
