package config

import (
	"fmt"
	"os"
	"time"
)

// TallyBackend selects where live counts and dedup sets are kept.
type TallyBackend string

const (
	TallyBackendMemory TallyBackend = "memory"
	TallyBackendRedis  TallyBackend = "redis"
)

// Config holds service configuration.
type Config struct {
	ServerAddr    string
	DatabaseURL   string
	RedisAddr     string
	TallyBackend  TallyBackend
	JWTSecret     string
	SweepInterval time.Duration
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "livetally")
		pass := getenv("POSTGRES_PASSWORD", "livetally")
		db := getenv("POSTGRES_DB", "livetally")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	backend := TallyBackend(getenv("TALLY_BACKEND", string(TallyBackendMemory)))
	switch backend {
	case TallyBackendMemory, TallyBackendRedis:
	default:
		return nil, fmt.Errorf("unknown tally backend %q", backend)
	}

	return &Config{
		ServerAddr:    getenv("SERVER_ADDR", "0.0.0.0:8080"),
		DatabaseURL:   dsn,
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		TallyBackend:  backend,
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SweepInterval: parseDuration(getenv("FINALIZE_SWEEP_INTERVAL", "30s"), 30*time.Second),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}
