package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string
	RedisAddr   string

	GrantURL          string
	GrantTimeout      time.Duration
	GrantAttempts     int
	GrantQueueSize    int
	GrantRetryBackoff time.Duration

	DNSTimeout  time.Duration
	TokenLength int
	PendingTTL  time.Duration

	VerifyRateLimitPerMin int
	RateLimitFailureMode  string
	TrustedCallerCIDRs    []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		GrantURL:              getEnv("GRANT_URL", "http://localhost:8018/assign-role"),
		GrantAttempts:         getEnvInt("GRANT_ATTEMPTS", 3),
		GrantQueueSize:        getEnvInt("GRANT_QUEUE_SIZE", 64),
		TokenLength:           getEnvInt("TOKEN_LENGTH", 15),
		VerifyRateLimitPerMin: getEnvInt("VERIFY_RATE_LIMIT_PER_MIN", 60),
		RateLimitFailureMode:  strings.ToLower(getEnv("RATE_LIMIT_FAILURE_MODE", "fail_closed")),
		TrustedCallerCIDRs:    splitCSV(getEnv("TRUSTED_CALLER_CIDRS", "")),
	}

	var err error
	if cfg.GrantTimeout, err = parseDurationEnv("GRANT_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.GrantRetryBackoff, err = parseDurationEnv("GRANT_RETRY_BACKOFF", "500ms"); err != nil {
		return nil, err
	}
	if cfg.DNSTimeout, err = parseDurationEnv("DNS_TIMEOUT", "2s"); err != nil {
		return nil, err
	}
	if cfg.PendingTTL, err = parseDurationEnv("PENDING_TTL", "10m"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.GrantURL == "" {
		errs = append(errs, "GRANT_URL is required")
	}
	if c.TokenLength < 15 {
		errs = append(errs, "TOKEN_LENGTH must be at least 15")
	}
	if c.GrantAttempts <= 0 {
		errs = append(errs, "GRANT_ATTEMPTS must be > 0")
	}
	if c.VerifyRateLimitPerMin <= 0 {
		errs = append(errs, "VERIFY_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.RateLimitFailureMode != "fail_open" && c.RateLimitFailureMode != "fail_closed" {
		errs = append(errs, "RATE_LIMIT_FAILURE_MODE must be fail_open or fail_closed")
	}
	if c.DNSTimeout <= 0 || c.DNSTimeout > 30*time.Second {
		errs = append(errs, "DNS_TIMEOUT must be > 0 and at most 30s")
	}
	if c.PendingTTL <= 0 {
		errs = append(errs, "PENDING_TTL must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
