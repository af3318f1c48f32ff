package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/Kuany4953/wasil-sub000/domain"
)

// AuthConfig carries the tunable constants of the auth flow
type AuthConfig struct {
	OTPLength          int
	OTPTTL             time.Duration
	TokenTTL           time.Duration
	DefaultCountryCode string
	// DemoMode echoes the generated code back in the send-otp response.
	// Never enable in production.
	DemoMode bool
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo        domain.UserRepository
	otpStore        domain.OTPStore
	tokenSvc        domain.TokenService
	notificationSvc domain.NotificationService
	limiter         domain.RateLimiter
	config          AuthConfig
	logger          *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	otpStore domain.OTPStore,
	tokenSvc domain.TokenService,
	notificationSvc domain.NotificationService,
	limiter domain.RateLimiter,
	config AuthConfig,
	logger *zap.Logger,
) domain.AuthService {
	return &AuthServiceImpl{
		userRepo:        userRepo,
		otpStore:        otpStore,
		tokenSvc:        tokenSvc,
		notificationSvc: notificationSvc,
		limiter:         limiter,
		config:          config,
		logger:          logger,
	}
}

// RequestCode implements domain.AuthService. Validation and the rate limit
// check both happen before any side effect.
func (s *AuthServiceImpl) RequestCode(ctx context.Context, phone, countryCode string) (*domain.CodeRequest, error) {
	if !domain.ValidPhone(phone) {
		return nil, domain.ErrInvalidPhone
	}
	if countryCode == "" {
		countryCode = s.config.DefaultCountryCode
	}
	normalized := domain.NormalizePhone(phone, countryCode)

	if !s.limiter.Allow(ctx, normalized) {
		return nil, domain.ErrRateLimited
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp code: %w", err)
	}

	if err := s.otpStore.Put(ctx, normalized, code); err != nil {
		return nil, fmt.Errorf("failed to store otp: %w", err)
	}

	// Fire-and-forget dispatch: an SMS failure is logged but never rolls back
	// the stored code or the response.
	message := fmt.Sprintf("Your Wasil verification code is: %s. Valid for %d minutes.", code, int(s.config.OTPTTL.Minutes()))
	go func(to, body string) {
		if err := s.notificationSvc.SendSMS(to, body); err != nil {
			s.logger.Error("sms dispatch failed", zap.String("phone", to), zap.Error(err))
		}
	}(normalized, message)

	result := &domain.CodeRequest{
		Phone:    normalized,
		DemoMode: s.config.DemoMode,
	}
	if s.config.DemoMode {
		result.Hint = code
	}
	return result, nil
}

// VerifyCode implements domain.AuthService. A code is consumed at most once:
// the stored entry is deleted on the first successful match, and a mismatch
// leaves it in place for retry within the TTL window.
func (s *AuthServiceImpl) VerifyCode(ctx context.Context, phone, code string) (*domain.VerifyResult, error) {
	if !domain.ValidPhone(phone) {
		return nil, domain.ErrInvalidPhone
	}
	if !domain.ValidOTPCode(code) {
		return nil, domain.ErrInvalidCode
	}
	normalized := domain.NormalizePhone(phone, s.config.DefaultCountryCode)

	stored, err := s.otpStore.Get(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if stored != code {
		return nil, domain.ErrOTPInvalid
	}

	if err := s.otpStore.Delete(ctx, normalized); err != nil {
		return nil, fmt.Errorf("failed to consume otp: %w", err)
	}

	user, err := s.userRepo.FindByPhone(ctx, normalized)
	switch err {
	case nil:
		if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"is_verified": true}); err != nil {
			return nil, fmt.Errorf("failed to touch user: %w", err)
		}
		user.IsVerified = true
	case domain.ErrUserNotFound:
		user = &domain.User{
			Phone:      normalized,
			UserType:   domain.UserTypeRider,
			Rating:     5.0,
			IsVerified: true,
			IsActive:   true,
			Language:   domain.LanguageEnglish,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// The code is already consumed here; the caller must request a
			// fresh one and retry.
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Info("user created on first verification",
			zap.String("user_id", user.ID), zap.String("phone", normalized))
	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.tokenSvc.Mint(user)
	if err != nil {
		return nil, fmt.Errorf("failed to mint token: %w", err)
	}

	return &domain.VerifyResult{
		User:      user,
		Token:     token,
		IsNewUser: !user.ProfileComplete,
		ExpiresIn: int64(s.config.TokenTTL.Seconds()),
	}, nil
}

// GetProfile implements domain.AuthService
func (s *AuthServiceImpl) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdateProfile implements domain.AuthService. Only the allow-listed profile
// fields are writable; the first update carrying a non-empty first name marks
// the profile complete.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	fields := make(map[string]interface{})
	if update.FirstName != nil {
		fields["first_name"] = *update.FirstName
		if *update.FirstName != "" {
			fields["profile_complete"] = true
		}
	}
	if update.LastName != nil {
		fields["last_name"] = *update.LastName
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.ProfilePhoto != nil {
		fields["profile_photo"] = *update.ProfilePhoto
	}
	if update.Language != nil {
		if *update.Language != domain.LanguageEnglish && *update.Language != domain.LanguageArabic {
			return nil, domain.ErrInvalidLanguage
		}
		fields["language"] = string(*update.Language)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, userID)
}

// generateCode produces a uniformly distributed numeric code of the
// configured length.
func (s *AuthServiceImpl) generateCode() (string, error) {
	length := s.config.OTPLength
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}
