package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/totpgate/internal/auth/pending"
	"github.com/aussiebroadwan/totpgate/internal/auth/service"
	"github.com/aussiebroadwan/totpgate/pkg/jwtx"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	SessionBackendStore = "store"
	SessionBackendRedis = "redis"
)

type Config struct {
	Issuer string // TOTP issuer label and challenge token issuer (default: TOTPGate)

	Store        string // Account store driver (sqlite, mongo) (default: sqlite)
	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	MongoURI     string // MongoDB connection string (default: mongodb://localhost:27017)
	MongoDB      string // MongoDB database name (default: totpgate)

	SessionBackend string // Where sessions live (store, redis) (default: store)
	RedisAddr      string // Redis address (default: localhost:6379)
	RedisPassword  string // Optional
	RedisDB        int    // Redis logical database (default: 0)

	PepperFile       string // Path to the password hashing pepper (default: ./pepper)
	ChallengeKeyFile string // Path to the login challenge signing key (default: ./challenge.key)

	PendingTTL   time.Duration // Lifetime of an unconfirmed signup (default: 10m)
	SessionTTL   time.Duration // Absolute session lifetime (default: 1h)
	ChallengeTTL time.Duration // Lifetime of a login challenge (default: 10m)
	TOTPSkew     uint          // Time steps accepted either side of now, 0 for the current step only (default: 1)

	AllowedOrigins []string // CORS origins (default: http://localhost:5173)
	CookieSecure   bool     // Set Secure on the session cookie (default: true outside dev)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1m)
}

// LoadConfig reads the configuration from the environment. Values in a .env
// file in the working directory are applied first but never override
// variables that are already set.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	env := getEnvOrDefault("ENV", "dev")
	cfg := Config{
		Issuer: getEnvOrDefault("AUTH_ISSUER", "TOTPGate"),

		Store:        strings.ToLower(getEnvOrDefault("AUTH_STORE", StoreSQLite)),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		MongoURI:     getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnvOrDefault("MONGO_DB", "totpgate"),

		SessionBackend: strings.ToLower(getEnvOrDefault("SESSION_BACKEND", SessionBackendStore)),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),

		PepperFile:       getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		ChallengeKeyFile: getEnvOrDefault("AUTH_CHALLENGE_KEY_FILE", "challenge.key"),

		PendingTTL:   getEnvDurationOrDefault("PENDING_TTL", pending.DefaultTTL),
		SessionTTL:   getEnvDurationOrDefault("SESSION_TTL", service.DefaultSessionTTL),
		ChallengeTTL: getEnvDurationOrDefault("CHALLENGE_TTL", jwtx.DefaultChallengeTTL),
		TOTPSkew:     uint(max(getEnvIntOrDefault("TOTP_SKEW", 1), 0)),

		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		CookieSecure:   getEnvBoolOrDefault("COOKIE_SECURE", env != "dev"),

		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", service.DefaultHousekeepingInterval),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown driver names and non-positive lifetimes.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreMongo:
	default:
		return fmt.Errorf("unknown AUTH_STORE %q (want %s or %s)", c.Store, StoreSQLite, StoreMongo)
	}
	switch c.SessionBackend {
	case SessionBackendStore, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want %s or %s)", c.SessionBackend, SessionBackendStore, SessionBackendRedis)
	}
	if c.PendingTTL <= 0 || c.SessionTTL <= 0 || c.ChallengeTTL <= 0 {
		return errors.New("PENDING_TTL, SESSION_TTL and CHALLENGE_TTL must be positive")
	}
	return nil
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
