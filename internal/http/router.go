package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/Kuany4953/wasil-sub000/internal/http/handlers"
)

func BuildRouter(ah *handlers.AuthHandlers, authMW gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", ah.Health)

	auth := r.Group("/auth")
	auth.POST("/send-otp", ah.SendOTP)
	auth.POST("/verify-otp", ah.VerifyOTP)

	protected := r.Group("/auth").Use(authMW)
	protected.GET("/me", ah.Me)
	protected.PUT("/profile", ah.UpdateProfile)
	protected.POST("/logout", ah.Logout)

	return r
}
