package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the signing secret used when none is configured outside production.
const DevJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the CRM.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Session  SessionConfig
}

// AppConfig controls process level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
	Output   string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret        string
	JWTAlgorithm     string
	TokenTTLSeconds  int
	PasswordHasher   string
	BcryptCost       int
	MaxLoginAttempts int
	LockoutMinutes   int
}

// SessionConfig locates the local session record.
type SessionConfig struct {
	FilePath   string
	TokenField string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "crm"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            getEnv("POSTGRES_DSN", os.Getenv("DATABASE_URL")),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 0)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", false),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "warn"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			Output:   getEnv("LOG_OUTPUT", "stderr"),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("AUTH_JWT_SECRET", DevJWTSecret),
			JWTAlgorithm:     strings.ToUpper(getEnv("AUTH_JWT_ALGORITHM", "HS256")),
			TokenTTLSeconds:  getEnvAsInt("AUTH_TOKEN_TTL_SECONDS", 3600),
			PasswordHasher:   strings.ToLower(getEnv("AUTH_PASSWORD_HASHER", "argon2")),
			BcryptCost:       getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxLoginAttempts: getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockoutMinutes:   getEnvAsInt("AUTH_LOCKOUT_MINUTES", 15),
		},
		Session: SessionConfig{
			FilePath:   getEnv("SESSION_FILE", defaultSessionPath()),
			TokenField: getEnv("SESSION_TOKEN_FIELD", "token"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the token codec or session store cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == DevJWTSecret {
		return errors.New("AUTH_JWT_SECRET must be changed from the development default in production")
	}
	switch c.Auth.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported AUTH_JWT_ALGORITHM %q: use HS256, HS384 or HS512", c.Auth.JWTAlgorithm)
	}
	if c.Auth.TokenTTLSeconds <= 0 {
		return errors.New("AUTH_TOKEN_TTL_SECONDS must be positive")
	}
	switch c.Auth.PasswordHasher {
	case "argon2", "bcrypt":
	default:
		return fmt.Errorf("unsupported AUTH_PASSWORD_HASHER %q: use argon2 or bcrypt", c.Auth.PasswordHasher)
	}
	if c.Session.TokenField == "" {
		return errors.New("SESSION_TOKEN_FIELD must not be empty")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the session token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLSeconds) * time.Second
}

// LockoutWindow returns how long failed logins are remembered.
func (a AuthConfig) LockoutWindow() time.Duration {
	return time.Duration(a.LockoutMinutes) * time.Minute
}

// defaultSessionPath resolves $XDG_CONFIG_HOME/crm/session.json, falling back to ~/.config.
func defaultSessionPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "crm-session.json")
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "crm", "session.json")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
