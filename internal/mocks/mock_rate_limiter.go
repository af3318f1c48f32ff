package mocks

import (
	"context"
	"sync"

	"github.com/Kuany4953/wasil-sub000/domain"
)

// MockRateLimiter implements domain.RateLimiter for testing
type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string) bool

	mu    sync.Mutex
	calls []string
}

// NewMockRateLimiter creates a new MockRateLimiter
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

// Allow records the key and delegates to AllowFunc if set
func (m *MockRateLimiter) Allow(ctx context.Context, key string) bool {
	m.mu.Lock()
	m.calls = append(m.calls, key)
	m.mu.Unlock()
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key)
	}
	// Default behavior: allow
	return true
}

// Calls returns the recorded keys
func (m *MockRateLimiter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Compile-time interface compliance verification
var _ domain.RateLimiter = (*MockRateLimiter)(nil)
