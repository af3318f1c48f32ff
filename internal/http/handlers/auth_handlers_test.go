package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kuany4953/wasil-sub000/domain"
	"github.com/Kuany4953/wasil-sub000/internal/mocks"
	"github.com/Kuany4953/wasil-sub000/internal/services"
)

func newTestRouter(t *testing.T, f *handlerFixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/health", f.handlers.Health)
	r.POST("/auth/send-otp", f.handlers.SendOTP)
	r.POST("/auth/verify-otp", f.handlers.VerifyOTP)

	authed := r.Group("/auth")
	authed.Use(func(c *gin.Context) {
		c.Set("user_id", f.contextUserID)
	})
	authed.GET("/me", f.handlers.Me)
	authed.PUT("/profile", f.handlers.UpdateProfile)
	authed.POST("/logout", f.handlers.Logout)

	return r
}

type handlerFixture struct {
	handlers      *AuthHandlers
	userRepo      *mocks.MockUserRepository
	otpStore      *mocks.MockOTPStore
	limiter       *mocks.MockRateLimiter
	contextUserID string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		userRepo:      mocks.NewMockUserRepository(),
		otpStore:      mocks.NewMockOTPStore(),
		limiter:       mocks.NewMockRateLimiter(),
		contextUserID: "u-1",
	}
	svc := services.NewAuthService(
		f.userRepo,
		f.otpStore,
		mocks.NewMockTokenService(),
		mocks.NewMockNotificationService(),
		f.limiter,
		services.AuthConfig{
			OTPLength:          6,
			OTPTTL:             5 * time.Minute,
			TokenTTL:           7 * 24 * time.Hour,
			DefaultCountryCode: "211",
			DemoMode:           true,
		},
		zap.NewNop(),
	)
	f.handlers = NewAuthHandlers(svc, "wasil-auth", zap.NewNop())
	return f
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthHandlers_SendOTP(t *testing.T) {
	t.Run("success echoes normalized phone and demo hint", func(t *testing.T) {
		f := newHandlerFixture(t)
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/send-otp", gin.H{"phone": "0900000001"})

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "+211900000001", body["phone"])
		assert.Equal(t, true, body["demo_mode"])
		assert.NotEmpty(t, body["hint"])
	})

	t.Run("missing phone is a 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/send-otp", gin.H{})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed phone is a 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/send-otp", gin.H{"phone": "123"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rate limited is a 429 with no stored code", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.limiter.AllowFunc = func(ctx context.Context, key string) bool { return false }
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/send-otp", gin.H{"phone": "+211900000001"})

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		_, stored := f.otpStore.Stored("+211900000001")
		assert.False(t, stored)
	})
}

func TestAuthHandlers_VerifyOTP(t *testing.T) {
	t.Run("success returns token and new user view", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.otpStore.Put(context.Background(), "+211900000001", "123456")
		f.userRepo.CreateFunc = func(ctx context.Context, user *domain.User) error {
			user.ID = "u-1"
			return nil
		}
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/verify-otp", gin.H{
			"phone": "+211900000001",
			"otp":   "123456",
		})

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "test-token", body["token"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "u-1", user["id"])
		assert.Equal(t, "+211900000001", user["phone"])
		assert.Equal(t, true, user["is_new_user"])
		assert.Equal(t, "rider", user["user_type"])
	})

	t.Run("short code is rejected by binding", func(t *testing.T) {
		f := newHandlerFixture(t)
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/verify-otp", gin.H{
			"phone": "+211900000001",
			"otp":   "123",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown code is a 400 not found", func(t *testing.T) {
		f := newHandlerFixture(t)
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/verify-otp", gin.H{
			"phone": "+211900000001",
			"otp":   "123456",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["error"], "expired or not found")
	})

	t.Run("wrong code is a 400 invalid", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.otpStore.Put(context.Background(), "+211900000001", "123456")
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPost, "/auth/verify-otp", gin.H{
			"phone": "+211900000001",
			"otp":   "654321",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["error"], "Invalid OTP")
	})
}

func TestAuthHandlers_Me(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.userRepo.FindByIDFunc = func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{
				ID:        id,
				Phone:     "+211900000001",
				FirstName: "Amina",
				UserType:  domain.UserTypeRider,
				Rating:    5.0,
				IsActive:  true,
				Language:  domain.LanguageEnglish,
			}, nil
		}
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodGet, "/auth/me", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Amina", body["first_name"])
		assert.Equal(t, "+211900000001", body["phone"])
	})

	t.Run("user deleted after token issuance is a 404", func(t *testing.T) {
		f := newHandlerFixture(t)
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodGet, "/auth/me", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAuthHandlers_UpdateProfile(t *testing.T) {
	t.Run("empty update set is a 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPut, "/auth/profile", gin.H{})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("partial update returns the updated subset", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.userRepo.FindByIDFunc = func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, FirstName: "Amina", ProfileComplete: true}, nil
		}
		r := newTestRouter(t, f)

		w := doJSON(t, r, http.MethodPut, "/auth/profile", gin.H{"first_name": "Amina"})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "Amina", user["first_name"])
	})
}

func TestAuthHandlers_Health(t *testing.T) {
	f := newHandlerFixture(t)
	r := newTestRouter(t, f)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "wasil-auth", body["service"])
	assert.NotEmpty(t, body["timestamp"])
}
