package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the compliance gateway.
type Server struct {
	Addr          string
	JWTSigningKey string

	// AdminTokenHash is a bcrypt hash of the operations escape-hatch token.
	// Admin endpoints accept either a JWT with the ADMIN role or this token.
	AdminTokenHash string

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	// GeoLookupBaseURL points at the IP geolocation provider.
	GeoLookupBaseURL string
	// GeoLookupTimeout bounds the external lookup; timeouts fail closed.
	GeoLookupTimeout time.Duration

	RateLimit RateLimitConfig
}

// RateLimitConfig bounds the write-heavy compliance endpoints per subject.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis and
// the rate limiter falls back to its in-process implementation.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds audit pipeline settings. Empty brokers disable the outbox
// publisher; audit records are still persisted locally.
type KafkaConfig struct {
	Brokers         string
	Topic           string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("AIBETIX_ADDR", ":8080"),
		JWTSigningKey:    envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminTokenHash:   os.Getenv("ADMIN_TOKEN_HASH"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GeoLookupBaseURL: envOr("GEO_LOOKUP_URL", "http://ip-api.com"),
		GeoLookupTimeout: envDurationOr("GEO_LOOKUP_TIMEOUT", 3*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			Limit:  envIntOr("RATE_LIMIT_REQUESTS", 30),
			Window: envDurationOr("RATE_LIMIT_WINDOW", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Topic:           envOr("KAFKA_AUDIT_TOPIC", "aibetix.audit.location-checks"),
			Acks:            envOr("KAFKA_ACKS", "all"),
			Retries:         envIntOr("KAFKA_RETRIES", 3),
			DeliveryTimeout: envDurationOr("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
