package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kuany4953/wasil-sub000/internal/config"
	httpx "github.com/Kuany4953/wasil-sub000/internal/http"
	"github.com/Kuany4953/wasil-sub000/internal/http/handlers"
	"github.com/Kuany4953/wasil-sub000/internal/http/middleware"
)

func Run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	c, err := NewContainer(cfg, logger)
	if err != nil {
		return err
	}

	authH := handlers.NewAuthHandlers(c.AuthSvc, cfg.ServiceName, logger)
	authMW := middleware.AuthMiddleware(c.TokenSvc)

	r := httpx.BuildRouter(authH, authMW)

	if cfg.DemoMode {
		logger.Warn("demo mode enabled, otp codes are echoed in responses")
	}

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("service", cfg.ServiceName))
	return http.ListenAndServe(addr, r)
}
