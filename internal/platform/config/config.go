package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN switches the vault, registry, and event stores from memory
	// to Postgres when set.
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig configures the optional certificate-holder cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional event fan-out sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CUSTODIA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_EVENTS_TOPIC")
	if topic == "" {
		topic = "custodia.vault.events"
	}
	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}
