// Package config loads application configuration from environment
// variables once at startup. The resulting Config is passed explicitly
// to constructors; core packages never read the environment themselves.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Strings for
// identifiers and secrets, ints for durations, costs and limits.
type Config struct {
	Env             string // application environment ("dev", "prod")
	Port            string // HTTP port to listen on
	AppURL          string // externally reachable base URL, used in reset links
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	AMQPURL         string // RabbitMQ URL for outbound email events; empty disables
	JWTSecret       string // secret used to sign JWTs
	JWTTTLMin       int    // access token time-to-live in minutes
	CookieTTLDays   int    // jwt cookie lifetime in days (may exceed token TTL)
	BcryptCost      int    // bcrypt cost for password hashing
	ResetTTLMin     int    // password reset token window in minutes
	DefaultPageSize int    // list endpoint page size when ?limit is absent
	MaxPageSize     int    // hard cap on ?limit
}

// Load reads configuration from the environment. A .env file is
// honored when present. Required variables are enforced by must() and
// missing values abort startup.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		AppURL:          getenvDef("APP_URL", "http://localhost:8080"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		AMQPURL:         os.Getenv("RABBITMQ_URL"),
		JWTSecret:       must("JWT_SECRET"),
		JWTTTLMin:       mustInt("JWT_TTL_MIN"),
		CookieTTLDays:   intDef("JWT_COOKIE_TTL_DAYS", 90),
		BcryptCost:      mustInt("BCRYPT_COST"),
		ResetTTLMin:     intDef("RESET_TOKEN_TTL_MIN", 10),
		DefaultPageSize: intDef("DEFAULT_PAGE_SIZE", 100),
		MaxPageSize:     intDef("MAX_PAGE_SIZE", 500),
	}
}

// IsProd reports whether the app runs in production mode. Internal
// error details and insecure cookies hinge on this.
func (c Config) IsProd() bool { return c.Env == "prod" }

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenvDef(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intDef(key string, def int) int {
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
