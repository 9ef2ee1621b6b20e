package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/jwtx"
)

type Config struct {
	Issuer   string // Issuer claim for access tokens
	Audience string // Audience claim for access tokens

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	AccessTokenTTL       time.Duration // Access token lifetime (default: 1h)
	RefreshTokenTTL      time.Duration // Refresh token lifetime (default: 30d)
	ResetCodeTTL         time.Duration // Password reset code lifetime (default: 15m)
	VerificationTokenTTL time.Duration // Email verification token lifetime (default: 24h)
	ResetRequestsPerDay  int           // Per-email reset request budget, <=0 disables (default: 5)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "streetfix-auth"),
		Audience:             getEnvOrDefault("AUTH_AUDIENCE", "streetfix-api"),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		ResetRequestsPerDay:  getEnvIntOrDefault("AUTH_RESET_REQUESTS_PER_DAY", 5),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	var err error
	if cfg.AccessTokenTTL, err = envCompactDuration("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = envCompactDuration("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.ResetCodeTTL, err = envCompactDuration("AUTH_RESET_CODE_TTL", service.DefaultResetCodeTTL); err != nil {
		return Config{}, err
	}
	if cfg.VerificationTokenTTL, err = envCompactDuration("AUTH_VERIFICATION_TOKEN_TTL", service.DefaultVerificationTokenTTL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseCompactDuration parses time.ParseDuration syntax plus a "d" suffix
// for whole days, e.g. "30d" or "36h".
func ParseCompactDuration(s string) (time.Duration, error) {
	if v, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// envCompactDuration reads a compact duration from the environment. A set
// but unparseable value is a configuration error rather than a silent
// fallback, since an unintended token lifetime is a security problem.
func envCompactDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := ParseCompactDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be positive, got %q", key, value)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
