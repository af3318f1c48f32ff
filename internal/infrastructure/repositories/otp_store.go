package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kuany4953/wasil-sub000/domain"
)

const otpKeyPrefix = "otp:"

// OTPStoreImpl implements domain.OTPStore with Redis as the primary backing
// store and an in-process map as a degraded fallback. The fallback is not
// shared across process instances: with Redis down and more than one replica,
// verification intermittently fails for requests routed to a different
// instance than the one that stored the code.
type OTPStoreImpl struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	fallback map[string]domain.OTPEntry
	degraded sync.Once
}

// NewOTPStore creates a new OTP store. A nil client starts the store in
// memory-only mode.
func NewOTPStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *OTPStoreImpl {
	s := &OTPStoreImpl{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		fallback: make(map[string]domain.OTPEntry),
	}
	if client == nil {
		s.logDegraded(nil)
	}
	return s
}

// Put implements domain.OTPStore. A new code overwrites any prior unexpired
// code for the same phone, invalidating it.
func (s *OTPStoreImpl) Put(ctx context.Context, phone, code string) error {
	if s.client != nil {
		err := s.client.Set(ctx, otpKeyPrefix+phone, code, s.ttl).Err()
		if err == nil {
			// Drop any stale fallback entry left over from an outage so it
			// cannot resurface after the primary code is consumed.
			s.mu.Lock()
			delete(s.fallback, phone)
			s.mu.Unlock()
			return nil
		}
		s.logDegraded(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback[phone] = domain.OTPEntry{
		Phone:     phone,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Get implements domain.OTPStore. Expired entries are treated as absent; the
// fallback path double-checks the wall clock on read since nothing evicts the
// map eagerly.
func (s *OTPStoreImpl) Get(ctx context.Context, phone string) (string, error) {
	if s.client != nil {
		code, err := s.client.Get(ctx, otpKeyPrefix+phone).Result()
		if err == nil {
			return code, nil
		}
		if err != redis.Nil {
			s.logDegraded(err)
		}
		// On a miss, still consult the fallback map: the code may have been
		// stored there during a Redis outage.
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.fallback[phone]
	if !ok {
		return "", domain.ErrOTPNotFound
	}
	if !entry.ExpiresAt.After(s.now()) {
		delete(s.fallback, phone)
		return "", domain.ErrOTPNotFound
	}
	return entry.Code, nil
}

// Delete implements domain.OTPStore; idempotent.
func (s *OTPStoreImpl) Delete(ctx context.Context, phone string) error {
	if s.client != nil {
		if err := s.client.Del(ctx, otpKeyPrefix+phone).Err(); err != nil {
			s.logDegraded(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fallback, phone)
	return nil
}

func (s *OTPStoreImpl) logDegraded(err error) {
	s.degraded.Do(func() {
		s.logger.Warn("otp store degraded to in-process memory, codes will not survive restarts or reach other replicas",
			zap.Error(err))
	})
}

var _ domain.OTPStore = (*OTPStoreImpl)(nil)
