package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port               int    `yaml:"port"`
	GinMode            string `yaml:"gin_mode"`
	ServiceName        string `yaml:"service_name"`
	DemoMode           bool   `yaml:"demo_mode"`
	DefaultCountryCode string `yaml:"default_country_code"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"`
}

type OTPConfig struct {
	TTL             string `yaml:"ttl"`
	Length          int    `yaml:"length"`
	RateLimitWindow string `yaml:"rate_limit_window"`
	RateLimitMax    int    `yaml:"rate_limit_max"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OTP      OTPConfig      `yaml:"otp"`
	Twilio   TwilioConfig   `yaml:"twilio"`
}

type Config struct {
	Port               string
	GinMode            string
	ServiceName        string
	DemoMode           bool
	DefaultCountryCode string
	DSN                string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	JWTSecret          string
	JWTIssuer          string
	TokenTTL           time.Duration
	OTPTTL             time.Duration
	OTPLength          int
	RateLimitWindow    time.Duration
	RateLimitMax       int
	TwilioSID          string
	TwilioToken        string
	TwilioFrom         string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

// Load reads config/config.yml and applies environment overrides for
// deployment-specific values.
func Load() (*Config, error) {
	return LoadFrom("config/config.yml")
}

func LoadFrom(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	tokenTTL, err := time.ParseDuration(configFile.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT TTL: %w", err)
	}

	otpTTL, err := time.ParseDuration(configFile.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	rlWindow, err := time.ParseDuration(configFile.OTP.RateLimitWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP rate limit window: %w", err)
	}

	return &Config{
		Port:               env("PORT", fmt.Sprintf("%d", configFile.App.Port)),
		GinMode:            configFile.App.GinMode,
		ServiceName:        configFile.App.ServiceName,
		DemoMode:           envBool("DEMO_MODE", configFile.App.DemoMode),
		DefaultCountryCode: configFile.App.DefaultCountryCode,
		DSN:                env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:          env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:      env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:            configFile.Redis.DB,
		JWTSecret:          env("JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer:          configFile.JWT.Issuer,
		TokenTTL:           tokenTTL,
		OTPTTL:             otpTTL,
		OTPLength:          configFile.OTP.Length,
		RateLimitWindow:    rlWindow,
		RateLimitMax:       configFile.OTP.RateLimitMax,
		TwilioSID:          env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:        env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:         env("TWILIO_FROM_NUMBER", configFile.Twilio.FromNumber),
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
