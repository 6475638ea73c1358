package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is constructed once at
// process start and passed by reference to each component; no package keeps
// process-wide mutable settings.
type Config struct {
	// Application
	AppHost  string
	AppPort  string
	LogLevel string

	// PostgreSQL
	PostgresHost         string
	PostgresPort         int
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	PostgresMaxOpenConns int
	PostgresMaxIdleConns int

	// Redis
	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	DedupeTTL         time.Duration

	// Kafka
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Deferred processing
	ProcessingDelay time.Duration
	MaxAttempts     int
	RetryBackoff    time.Duration
	JobTimeout      time.Duration

	// Hot-path bounds
	EnqueueTimeout time.Duration
	StoreTimeout   time.Duration

	// Fallback dispatch
	FallbackMaxWorkers int
	ShutdownTimeout    time.Duration

	// Ops endpoint auth
	JWTSecretKey string
	JWTExp       time.Duration

	// Webhook signature verification; empty disables it
	WebhookSigningSecret string

	// Schema setup
	MigrationsPath string
}

// Load reads the env file at path (missing file is not an error), applies
// environment overrides, and returns the assembled Config.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(path)

	cfg := &Config{
		AppHost:              getEnv("APP_HOST", "localhost"),
		AppPort:              getEnv("APP_PORT", "8080"),
		LogLevel:             getEnv("APP_LOG_LEVEL", "info"),
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresUser:         getEnv("POSTGRES_USER", "user"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:           getEnv("POSTGRES_DB", "database"),
		RedisHost:            getEnv("REDIS_HOST", "localhost"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:         splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "transactions.process"),
		KafkaGroupID:         getEnv("KAFKA_GROUP_ID", "transaction-processors"),
		JWTSecretKey:         getEnv("JWT_SECRET_KEY", "my_super_secret_key"),
		WebhookSigningSecret: getEnv("WEBHOOK_SIGNING_SECRET", ""),
		MigrationsPath:       getEnv("MIGRATIONS_PATH", "migrations"),
	}

	var err error
	if cfg.PostgresPort, err = getEnvInt("POSTGRES_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.PostgresMaxOpenConns, err = getEnvInt("POSTGRES_MAX_OPEN_CONNS", 16); err != nil {
		return nil, err
	}
	if cfg.PostgresMaxIdleConns, err = getEnvInt("POSTGRES_MAX_IDLE_CONNS", 8); err != nil {
		return nil, err
	}
	if cfg.RedisPort, err = getEnvInt("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisPoolSize, err = getEnvInt("REDIS_POOL_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.RedisMinIdleConns, err = getEnvInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return nil, err
	}
	if cfg.DedupeTTL, err = getEnvSeconds("REDIS_DEDUPE_TTL_SECOND", 3600); err != nil {
		return nil, err
	}
	if cfg.ProcessingDelay, err = getEnvSeconds("PROCESSING_DELAY_SECOND", 30); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getEnvInt("PROCESSING_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = getEnvSeconds("PROCESSING_RETRY_BACKOFF_SECOND", 60); err != nil {
		return nil, err
	}
	if cfg.JobTimeout, err = getEnvSeconds("PROCESSING_JOB_TIMEOUT_SECOND", 300); err != nil {
		return nil, err
	}
	if cfg.EnqueueTimeout, err = getEnvSeconds("ENQUEUE_TIMEOUT_SECOND", 2); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getEnvSeconds("STORE_TIMEOUT_SECOND", 5); err != nil {
		return nil, err
	}
	if cfg.FallbackMaxWorkers, err = getEnvInt("FALLBACK_MAX_WORKERS", 64); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvSeconds("SHUTDOWN_TIMEOUT_SECOND", 30); err != nil {
		return nil, err
	}
	if cfg.JWTExp, err = getEnvSeconds("JWT_EXP_SECOND", 3600); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PostgresDSN returns the connection string for the configured database.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// RedisAddr returns the host:port address of the configured Redis instance.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func getEnvSeconds(key string, defaultValue int) (time.Duration, error) {
	n, err := getEnvInt(key, defaultValue)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func splitCSV(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
