package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Kuany4953/wasil-sub000/domain"
	"github.com/Kuany4953/wasil-sub000/internal/mocks"
)

type authServiceFixture struct {
	svc      domain.AuthService
	userRepo *mocks.MockUserRepository
	otpStore *mocks.MockOTPStore
	tokenSvc *mocks.MockTokenService
	sms      *mocks.MockNotificationService
	limiter  *mocks.MockRateLimiter
}

func newAuthServiceFixture(t *testing.T, demoMode bool) *authServiceFixture {
	t.Helper()

	f := &authServiceFixture{
		userRepo: mocks.NewMockUserRepository(),
		otpStore: mocks.NewMockOTPStore(),
		tokenSvc: mocks.NewMockTokenService(),
		sms:      mocks.NewMockNotificationService(),
		limiter:  mocks.NewMockRateLimiter(),
	}
	f.svc = NewAuthService(f.userRepo, f.otpStore, f.tokenSvc, f.sms, f.limiter, AuthConfig{
		OTPLength:          6,
		OTPTTL:             5 * time.Minute,
		TokenTTL:           7 * 24 * time.Hour,
		DefaultCountryCode: "211",
		DemoMode:           demoMode,
	}, zap.NewNop())
	return f
}

func TestAuthService_RequestCode(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes phone and stores a six digit code", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)

		result, err := f.svc.RequestCode(ctx, "0900000001", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Phone != "+211900000001" {
			t.Errorf("expected normalized phone +211900000001, got %s", result.Phone)
		}
		if result.Hint != "" {
			t.Error("hint must not be echoed outside demo mode")
		}

		code, ok := f.otpStore.Stored("+211900000001")
		if !ok {
			t.Fatal("expected a code stored for the normalized phone")
		}
		if !domain.ValidOTPCode(code) {
			t.Errorf("stored code %q is not six digits", code)
		}
	})

	t.Run("demo mode echoes the code as hint", func(t *testing.T) {
		f := newAuthServiceFixture(t, true)

		result, err := f.svc.RequestCode(ctx, "+211900000001", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stored, _ := f.otpStore.Stored("+211900000001")
		if result.Hint != stored {
			t.Errorf("hint %q does not match stored code %q", result.Hint, stored)
		}
		if !result.DemoMode {
			t.Error("expected demo_mode true")
		}
	})

	t.Run("invalid phone rejected before any side effect", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)

		_, err := f.svc.RequestCode(ctx, "12345", "")
		if !errors.Is(err, domain.ErrInvalidPhone) {
			t.Fatalf("expected ErrInvalidPhone, got %v", err)
		}
		if len(f.limiter.Calls()) != 0 {
			t.Error("limiter must not be consulted for invalid input")
		}
	})

	t.Run("rate limited call has no side effects", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		f.limiter.AllowFunc = func(ctx context.Context, key string) bool { return false }

		_, err := f.svc.RequestCode(ctx, "+211900000001", "")
		if !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
		if _, ok := f.otpStore.Stored("+211900000001"); ok {
			t.Error("rejected request must not store a code")
		}
	})

	t.Run("second request overwrites the first code", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)

		if _, err := f.svc.RequestCode(ctx, "+211900000001", ""); err != nil {
			t.Fatalf("first request: %v", err)
		}
		first, _ := f.otpStore.Stored("+211900000001")

		// Re-request until the generated code differs; a collision is
		// possible but overwhelmingly unlikely to repeat three times.
		var second string
		for i := 0; i < 3; i++ {
			if _, err := f.svc.RequestCode(ctx, "+211900000001", ""); err != nil {
				t.Fatalf("repeat request: %v", err)
			}
			second, _ = f.otpStore.Stored("+211900000001")
			if second != first {
				break
			}
		}
		if second == first {
			t.Skip("generated identical codes repeatedly")
		}

		_, err := f.svc.VerifyCode(ctx, "+211900000001", first)
		if !errors.Is(err, domain.ErrOTPInvalid) {
			t.Fatalf("verifying the overwritten code must fail as invalid, got %v", err)
		}
	})
}

func TestAuthService_VerifyCode(t *testing.T) {
	ctx := context.Background()

	t.Run("code consumed exactly once", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		f.otpStore.Put(ctx, "+211900000001", "123456")

		result, err := f.svc.VerifyCode(ctx, "+211900000001", "123456")
		if err != nil {
			t.Fatalf("first verify: %v", err)
		}
		if !result.IsNewUser {
			t.Error("expected is_new_user true for a fresh phone")
		}
		if result.Token == "" {
			t.Error("expected a minted token")
		}

		_, err = f.svc.VerifyCode(ctx, "+211900000001", "123456")
		if !errors.Is(err, domain.ErrOTPNotFound) {
			t.Fatalf("second verify must fail as not found, got %v", err)
		}
	})

	t.Run("wrong code keeps the entry for retry", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		f.otpStore.Put(ctx, "+211900000001", "123456")

		_, err := f.svc.VerifyCode(ctx, "+211900000001", "654321")
		if !errors.Is(err, domain.ErrOTPInvalid) {
			t.Fatalf("expected ErrOTPInvalid, got %v", err)
		}

		if _, err := f.svc.VerifyCode(ctx, "+211900000001", "123456"); err != nil {
			t.Fatalf("correct code must still verify after a mismatch: %v", err)
		}
	})

	t.Run("never requested code fails as not found, not validation", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)

		_, err := f.svc.VerifyCode(ctx, "+211900000002", "123456")
		if !errors.Is(err, domain.ErrOTPNotFound) {
			t.Fatalf("expected ErrOTPNotFound, got %v", err)
		}
	})

	t.Run("malformed code is a validation error", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)

		_, err := f.svc.VerifyCode(ctx, "+211900000001", "12ab56")
		if !errors.Is(err, domain.ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode, got %v", err)
		}
	})

	t.Run("creates user with defaults on first verification", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		f.otpStore.Put(ctx, "+211900000001", "123456")

		var created *domain.User
		f.userRepo.CreateFunc = func(ctx context.Context, user *domain.User) error {
			user.ID = "u-1"
			created = user
			return nil
		}

		result, err := f.svc.VerifyCode(ctx, "+211900000001", "123456")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if created == nil {
			t.Fatal("expected user creation")
		}
		if created.UserType != domain.UserTypeRider {
			t.Errorf("expected rider default, got %s", created.UserType)
		}
		if created.Rating != 5.0 {
			t.Errorf("expected rating 5.0, got %v", created.Rating)
		}
		if !created.IsVerified || !created.IsActive {
			t.Error("expected user verified and active")
		}
		if created.ProfileComplete {
			t.Error("new user must start with an incomplete profile")
		}
		if !result.IsNewUser {
			t.Error("expected is_new_user true")
		}
	})

	t.Run("existing user with complete profile is not new", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		f.otpStore.Put(ctx, "+211900000001", "123456")
		f.userRepo.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.User, error) {
			return &domain.User{
				ID:              "u-1",
				Phone:           phone,
				FirstName:       "Amina",
				UserType:        domain.UserTypeRider,
				ProfileComplete: true,
			}, nil
		}

		result, err := f.svc.VerifyCode(ctx, "+211900000001", "123456")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if result.IsNewUser {
			t.Error("expected is_new_user false for a completed profile")
		}
	})

	t.Run("user creation failure after consumption is surfaced as retriable", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		f.otpStore.Put(ctx, "+211900000001", "123456")
		f.userRepo.CreateFunc = func(ctx context.Context, user *domain.User) error {
			return errors.New("db down")
		}

		_, err := f.svc.VerifyCode(ctx, "+211900000001", "123456")
		if err == nil {
			t.Fatal("expected an error")
		}
		// The code is consumed; the client must request a fresh one.
		if _, ok := f.otpStore.Stored("+211900000001"); ok {
			t.Error("code must stay consumed even when user creation fails")
		}
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("empty update is rejected without a write", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		wrote := false
		f.userRepo.UpdateFieldsFunc = func(ctx context.Context, id string, fields map[string]interface{}) error {
			wrote = true
			return nil
		}

		_, err := f.svc.UpdateProfile(ctx, "u-1", domain.ProfileUpdate{})
		if !errors.Is(err, domain.ErrEmptyUpdate) {
			t.Fatalf("expected ErrEmptyUpdate, got %v", err)
		}
		if wrote {
			t.Error("empty update must not reach the repository")
		}
	})

	t.Run("first name completes the profile", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		var gotFields map[string]interface{}
		f.userRepo.UpdateFieldsFunc = func(ctx context.Context, id string, fields map[string]interface{}) error {
			gotFields = fields
			return nil
		}
		f.userRepo.FindByIDFunc = func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, FirstName: "Amina", ProfileComplete: true}, nil
		}

		name := "Amina"
		user, err := f.svc.UpdateProfile(ctx, "u-1", domain.ProfileUpdate{FirstName: &name})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if gotFields["first_name"] != "Amina" {
			t.Errorf("expected first_name in update, got %v", gotFields)
		}
		if gotFields["profile_complete"] != true {
			t.Error("expected profile_complete to flip on first name")
		}
		if user.FirstName != "Amina" {
			t.Errorf("expected returned user to carry the update, got %q", user.FirstName)
		}
	})

	t.Run("unsupported language rejected", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		lang := domain.Language("fr")
		_, err := f.svc.UpdateProfile(ctx, "u-1", domain.ProfileUpdate{Language: &lang})
		if !errors.Is(err, domain.ErrInvalidLanguage) {
			t.Fatalf("expected ErrInvalidLanguage, got %v", err)
		}
	})

	t.Run("immutable fields never appear in the update set", func(t *testing.T) {
		f := newAuthServiceFixture(t, false)
		var gotFields map[string]interface{}
		f.userRepo.UpdateFieldsFunc = func(ctx context.Context, id string, fields map[string]interface{}) error {
			gotFields = fields
			return nil
		}
		f.userRepo.FindByIDFunc = func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id}, nil
		}

		email := "amina@example.com"
		if _, err := f.svc.UpdateProfile(ctx, "u-1", domain.ProfileUpdate{Email: &email}); err != nil {
			t.Fatalf("update: %v", err)
		}
		for _, forbidden := range []string{"phone", "rating", "total_rides", "user_type"} {
			if _, ok := gotFields[forbidden]; ok {
				t.Errorf("field %s must not be updatable", forbidden)
			}
		}
	})
}
