package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "CertiTax"
	defaultAppEnv        = "development"
	defaultPort          = "3001"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultSessionTTL    = 8 * time.Hour
	defaultOTPTTL        = 5 * time.Minute
	defaultOTPAttempts   = 5
	defaultSMTPPort      = 587
	defaultMailFrom      = "Seguridad <noreply@certitax.cl>"
	defaultStorageDir    = "./data/certificados"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	JWTSecret  string
	SessionTTL time.Duration

	OTPTTL         time.Duration
	OTPMaxAttempts int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	StorageDir string

	// AutoProvisionProfile controls whether a default corredor profile is created
	// for an authenticated user that has no profile row. Off by default.
	AutoProvisionProfile bool

	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SessionTTL:     defaultSessionTTL,
		OTPTTL:         defaultOTPTTL,
		OTPMaxAttempts: defaultOTPAttempts,
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       defaultSMTPPort,
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		MailFrom:       getEnv("MAIL_FROM", defaultMailFrom),
		StorageDir:     getEnv("STORAGE_DIR", defaultStorageDir),
		ShutdownPeriod: defaultShutdownDelay,
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}

	if v := os.Getenv("OTP_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid OTP_TTL: %w", err)
		}
		cfg.OTPTTL = d
	}

	if v := os.Getenv("OTP_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid OTP_MAX_ATTEMPTS: %q", v)
		}
		cfg.OTPMaxAttempts = n
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = n
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("AUTO_PROVISION_PROFILE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AUTO_PROVISION_PROFILE: %w", err)
		}
		cfg.AutoProvisionProfile = b
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
