package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kuany4953/wasil-sub000/domain"
	"github.com/Kuany4953/wasil-sub000/internal/config"
	"github.com/Kuany4953/wasil-sub000/internal/infrastructure/auth"
	"github.com/Kuany4953/wasil-sub000/internal/infrastructure/database"
	"github.com/Kuany4953/wasil-sub000/internal/infrastructure/notifications"
	"github.com/Kuany4953/wasil-sub000/internal/infrastructure/repositories"
	"github.com/Kuany4953/wasil-sub000/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories
	UserRepo domain.UserRepository
	OTPStore domain.OTPStore

	// Services
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	Limiter         domain.RateLimiter
	AuthSvc         domain.AuthService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	c.initRedis()
	c.initRepositories()
	c.initServices()

	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	c.DB = db
	return nil
}

// initRedis connects to the cache. An unreachable Redis is not fatal: the OTP
// store degrades to its in-process fallback and the rate limiter fails open,
// both loudly logged.
func (c *Container) initRedis() {
	rdb := database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err := rdb.Ping(context.Background()); err != nil {
		c.Logger.Warn("redis unreachable at startup, otp store degraded to in-process memory",
			zap.String("addr", c.Config.RedisAddr), zap.Error(err))
	}
	c.RedisClient = rdb.Client
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.OTPStore = repositories.NewOTPStore(c.RedisClient, c.Config.OTPTTL, c.Logger)
}

func (c *Container) initServices() {
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.TokenTTL)
	c.NotificationSvc = notifications.NewTwilioService(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioFrom,
		c.Logger,
	)
	c.Limiter = services.NewRedisRateLimiter(c.RedisClient, c.Config.RateLimitWindow, c.Config.RateLimitMax, c.Logger)

	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.OTPStore,
		c.TokenSvc,
		c.NotificationSvc,
		c.Limiter,
		services.AuthConfig{
			OTPLength:          c.Config.OTPLength,
			OTPTTL:             c.Config.OTPTTL,
			TokenTTL:           c.Config.TokenTTL,
			DefaultCountryCode: c.Config.DefaultCountryCode,
			DemoMode:           c.Config.DemoMode,
		},
		c.Logger,
	)
}
