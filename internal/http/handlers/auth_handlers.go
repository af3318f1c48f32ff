package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kuany4953/wasil-sub000/domain"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc     domain.AuthService
	serviceName string
	logger      *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, serviceName string, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authSvc:     authSvc,
		serviceName: serviceName,
		logger:      logger,
	}
}

// SendOTPRequest represents the send-otp request body
type SendOTPRequest struct {
	Phone       string `json:"phone" binding:"required"`
	CountryCode string `json:"country_code"`
}

// VerifyOTPRequest represents the verify-otp request body
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// UpdateProfileRequest represents the profile update request body; nil fields
// were not supplied.
type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email"`
	ProfilePhoto *string `json:"profile_photo"`
	Language     *string `json:"language"`
}

// SendOTP handles OTP generation and dispatch
func (h *AuthHandlers) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.RequestCode(c.Request.Context(), req.Phone, req.CountryCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		case errors.Is(err, domain.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
		default:
			h.logger.Error("send otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP"})
		}
		return
	}

	resp := gin.H{
		"success":   true,
		"phone":     result.Phone,
		"demo_mode": result.DemoMode,
	}
	if result.Hint != "" {
		resp["hint"] = result.Hint
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyOTP handles code verification, lazy user creation and token issuance
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.VerifyCode(c.Request.Context(), req.Phone, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPhone), errors.Is(err, domain.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number or code"})
		case errors.Is(err, domain.ErrOTPNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "OTP expired or not found"})
		case errors.Is(err, domain.ErrOTPInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP code"})
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed, please request a new code"})
		}
		return
	}

	user := result.User
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user": gin.H{
			"id":            user.ID,
			"phone":         user.Phone,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"email":         user.Email,
			"user_type":     user.UserType,
			"profile_photo": user.ProfilePhoto,
			"rating":        user.Rating,
			"is_verified":   user.IsVerified,
			"is_new_user":   result.IsNewUser,
		},
	})
}

// Me returns the authenticated user's profile
func (h *AuthHandlers) Me(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.authSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"phone":         user.Phone,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"email":         user.Email,
		"user_type":     user.UserType,
		"profile_photo": user.ProfilePhoto,
		"rating":        user.Rating,
		"total_rides":   user.TotalRides,
		"is_verified":   user.IsVerified,
		"is_active":     user.IsActive,
		"language":      user.Language,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	})
}

// UpdateProfile applies a partial update of the allow-listed profile fields
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := domain.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		ProfilePhoto: req.ProfilePhoto,
	}
	if req.Language != nil {
		lang := domain.Language(*req.Language)
		update.Language = &lang
	}

	user, err := h.authSvc.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyUpdate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		case errors.Is(err, domain.ErrInvalidLanguage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported language"})
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			h.logger.Error("update profile failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":            user.ID,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"email":         user.Email,
			"profile_photo": user.ProfilePhoto,
			"language":      user.Language,
		},
	})
}

// Logout acknowledges a logout. Tokens are stateless so there is nothing to
// revoke server-side; the client clears its persisted session.
func (h *AuthHandlers) Logout(c *gin.Context) {
	h.logger.Info("user logged out", zap.String("user_id", c.GetString("user_id")))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health reports service liveness
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   h.serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
