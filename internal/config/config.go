package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/events"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/storage"
)

// Config holds the gateway's settings, read from the environment (and an
// optional .env file).
type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	LogLevel        zerolog.Level

	Backend remote.Config
	Storage storage.Options

	SessionIdle  time.Duration
	SessionSweep time.Duration
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
	InstanceID   string
	PaymentDelay time.Duration
}

// Load returns the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	host, _ := os.Hostname()

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		LogLevel:        level,
		Backend: remote.Config{
			BaseURL:          getEnv("BACKEND_URL", "http://localhost:5000/api"),
			Timeout:          getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
			MaxRequests:      uint32(getEnvInt("BREAKER_MAX_REQUESTS", 1)),
			Interval:         getEnvDuration("BREAKER_INTERVAL", time.Minute),
			OpenTimeout:      getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
			FailureThreshold: uint32(getEnvInt("BREAKER_FAILURES", 5)),
		},
		Storage: storage.Options{
			Backend:       getEnv("STORAGE_BACKEND", storage.BackendMemory),
			SessionTTL:    getEnvDuration("SESSION_TTL", 30*24*time.Hour),
			PurgeInterval: getEnvDuration("STORAGE_PURGE_INTERVAL", 10*time.Minute),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:       getEnv("MONGO_DB_NAME", "storefront"),
			Postgres: storage.Credentials{
				Host:     getEnv("DB_HOST", "localhost"),
				Port:     getEnvInt("DB_PORT", 5432),
				User:     getEnv("DB_USER", "postgres"),
				Password: getEnv("DB_PASSWORD", "postgres"),
				DBName:   getEnv("DB_NAME", "storefront"),
				SSLMode:  getEnv("DB_SSLMODE", "disable"),
			},
		},
		SessionIdle:  getEnvDuration("SESSION_IDLE", 24*time.Hour),
		SessionSweep: getEnvDuration("SESSION_SWEEP", time.Minute),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", events.DefaultTopic),
		KafkaGroup:   getEnv("KAFKA_GROUP", ""),
		InstanceID:   getEnv("INSTANCE_ID", host),
		PaymentDelay: getEnvDuration("PAYMENT_DELAY", 200*time.Millisecond),
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_URL must be set")
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = "storefront"
	}
	if cfg.KafkaGroup == "" {
		// each instance needs every event, so groups are per instance
		cfg.KafkaGroup = "storefront-" + cfg.InstanceID
	}
	return cfg, nil
}

// KafkaEnabled reports whether cross-instance event fan-out is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
