package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service together.
type Config struct {
	Addr          string
	JWTSigningKey string

	// OperatorAccount is bootstrapped with the platform-admin role on startup.
	OperatorAccount string

	// FeeBasisPoints and TreasuryAccount seed the platform fee settings.
	// Both can be changed at runtime through the settings endpoints.
	FeeBasisPoints  int64
	TreasuryAccount string

	// PostgresDSN switches the project arena and global ledger to Postgres
	// when set; empty keeps the in-memory stores.
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers enables the Kafka event sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// EventBuffer > 0 switches the event publisher to async delivery.
	EventBuffer int
}

// RedisConfig carries connection settings for the leaderboard cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("GIVEPOOL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("GIVEPOOL_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("GIVEPOOL_KAFKA_TOPIC")
	if topic == "" {
		topic = "givepool.funding.events"
	}

	return Config{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		OperatorAccount: os.Getenv("GIVEPOOL_OPERATOR_ACCOUNT"),
		FeeBasisPoints:  envInt64("GIVEPOOL_FEE_BASIS_POINTS", 0),
		TreasuryAccount: os.Getenv("GIVEPOOL_TREASURY_ACCOUNT"),
		PostgresDSN:     os.Getenv("GIVEPOOL_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("GIVEPOOL_REDIS_URL"),
			PoolSize:     envInt("GIVEPOOL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("GIVEPOOL_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("GIVEPOOL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("GIVEPOOL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("GIVEPOOL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers: envList("GIVEPOOL_KAFKA_BROKERS"),
		KafkaTopic:   topic,
		EventBuffer:  envInt("GIVEPOOL_EVENT_BUFFER", 0),
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
