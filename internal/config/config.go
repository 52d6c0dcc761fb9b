package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	defaultAppName        = "NWTLedger"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultAccessCacheTTL = 24 * time.Hour
	defaultFeePercentage  = "0.30"
	defaultPurchaseRate   = 30
	devJWTSecret          = "development-only-secret"
	idemTTLSecondsKey     = "idempotency_ttl_seconds"
	idemTTLDurKey         = "idempotency_ttl"
	shutdownSecondsKey    = "shutdown_timeout_seconds"
	shutdownDurationKey   = "shutdown_timeout"
	accessCacheTTLKey     = "access_cache_ttl"
	purchaseRateLimitKey  = "purchase_rate_limit_per_min"
	platformFeeKey        = "platform_fee_percentage"
)

// Config captures application runtime configuration loaded from the
// environment and an optional config.yaml in the working directory.
type Config struct {
	AppName               string
	AppEnv                string
	Port                  string
	LogLevel              string
	DatabaseURL           string
	RedisURL              string
	JWTSecret             string
	WebhookSecret         string
	PlatformFeePercentage decimal.Decimal
	PurchaseRateLimit     int
	ShutdownPeriod        time.Duration
	IdempotencyTTL        time.Duration
	AccessCacheTTL        time.Duration
}

// Load reads configuration values and populates a Config instance.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("app_name", defaultAppName)
	v.SetDefault("app_env", defaultAppEnv)
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault(platformFeeKey, defaultFeePercentage)
	v.SetDefault(purchaseRateLimitKey, defaultPurchaseRate)
	v.SetDefault(accessCacheTTLKey, defaultAccessCacheTTL)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		AppName:           v.GetString("app_name"),
		AppEnv:            v.GetString("app_env"),
		Port:              v.GetString("port"),
		LogLevel:          strings.ToLower(v.GetString("log_level")),
		DatabaseURL:       v.GetString("database_url"),
		RedisURL:          v.GetString("redis_url"),
		JWTSecret:         v.GetString("jwt_secret"),
		WebhookSecret:     v.GetString("webhook_secret"),
		PurchaseRateLimit: v.GetInt(purchaseRateLimitKey),
		AccessCacheTTL:    v.GetDuration(accessCacheTTLKey),
	}

	var err error
	if cfg.ShutdownPeriod, err = duration(v, shutdownSecondsKey, shutdownDurationKey, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = duration(v, idemTTLSecondsKey, idemTTLDurKey, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}

	fee, err := decimal.NewFromString(v.GetString(platformFeeKey))
	if err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("invalid PLATFORM_FEE_PERCENTAGE %q: must be a fraction between 0 and 1", v.GetString(platformFeeKey))
	}
	cfg.PlatformFeePercentage = fee

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.WebhookSecret == "" {
			return Config{}, fmt.Errorf("WEBHOOK_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
	} else if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

// duration reads a setting given either as whole seconds or as a Go duration
// string; the seconds form wins when both are set.
func duration(v *viper.Viper, secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if raw := v.GetString(secondsKey); raw != "" {
		seconds, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(secondsKey), err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if raw := v.GetString(durationKey); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(durationKey), err)
		}
		return d, nil
	}
	return fallback, nil
}

// IsDev reports whether the service runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
