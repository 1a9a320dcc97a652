// Package config loads application configuration from environment
// variables.  A .env file, when present, is loaded by the binaries
// before Load runs.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Required variables are
// enforced by must(); the rest fall back to sensible defaults so a
// development setup only needs the database settings.
type Config struct {
	Env    string // application environment (dev, prod)
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	EventID        uint64        // identifier of the event on sale
	ReserveTimeout time.Duration // end-to-end bound on one reservation transaction
	LockWait       time.Duration // storage lock wait budget inside the transaction

	AMQPURL string // RabbitMQ URL for the delivery pipeline (optional)

	JWTSecret         string // secret used to sign admin access tokens
	AccessTTLMin      int    // admin access token time-to-live in minutes
	AdminPasswordHash string // bcrypt hash of the operator password
}

// Load reads configuration values from environment variables and
// returns a Config.  Missing required values cause the program to
// exit with a fatal log message.
func Load() Config {
	return Config{
		Env:    getenvDefault("APP_ENV", "dev"),
		Port:   getenvDefault("APP_PORT", "5000"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		EventID:        envUint64("EVENT_ID", 1),
		ReserveTimeout: envDuration("RESERVE_TIMEOUT", 10*time.Second),
		LockWait:       envDuration("DB_LOCK_WAIT", 5*time.Second),

		AMQPURL: os.Getenv("RABBITMQ_URL"),

		JWTSecret:         must("JWT_SECRET"),
		AccessTTLMin:      envInt("ACCESS_TOKEN_TTL_MIN", 60),
		AdminPasswordHash: must("ADMIN_PASSWORD_HASH"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func envUint64(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid uint for %s: %q", key, v)
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
