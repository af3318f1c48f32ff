package mocks

import (
	"context"
	"sync"

	"github.com/Kuany4953/wasil-sub000/domain"
)

// MockOTPStore implements domain.OTPStore for testing. With no funcs set it
// behaves as a working in-memory store without TTL.
type MockOTPStore struct {
	PutFunc    func(ctx context.Context, phone, code string) error
	GetFunc    func(ctx context.Context, phone string) (string, error)
	DeleteFunc func(ctx context.Context, phone string) error

	mu    sync.Mutex
	codes map[string]string
}

// NewMockOTPStore creates a new MockOTPStore
func NewMockOTPStore() *MockOTPStore {
	return &MockOTPStore{codes: make(map[string]string)}
}

// Put stores a code
func (m *MockOTPStore) Put(ctx context.Context, phone, code string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, phone, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[phone] = code
	return nil
}

// Get returns a stored code
func (m *MockOTPStore) Get(ctx context.Context, phone string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[phone]
	if !ok {
		return "", domain.ErrOTPNotFound
	}
	return code, nil
}

// Delete removes a stored code
func (m *MockOTPStore) Delete(ctx context.Context, phone string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, phone)
	return nil
}

// Stored returns the code currently held for phone, for assertions
func (m *MockOTPStore) Stored(phone string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[phone]
	return code, ok
}

// Compile-time interface compliance verification
var _ domain.OTPStore = (*MockOTPStore)(nil)
