package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Model       ModelConfig
	Training    TrainingConfig
	Synthetic   SyntheticConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ModelConfig describes the external prediction service and how hard to try it.
type ModelConfig struct {
	Enabled        bool
	BaseURL        string
	HealthTimeout  time.Duration
	PredictTimeout time.Duration
	MaxAttempts    int
	BackoffStep    time.Duration
	HealthCacheTTL time.Duration
}

// TrainingConfig holds training-data capture and export settings
type TrainingConfig struct {
	Store             string
	CollectionEnabled bool
	WriteTimeout      time.Duration
	ExportDir         string
	SplitRatio        float64
	LockTTL           time.Duration
}

// SyntheticConfig holds defaults for the bootstrap data generator
type SyntheticConfig struct {
	PerTask     int
	Seed        int64
	HistoryDays int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
			MaxBodyBytes:   int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "haemologix"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Model: ModelConfig{
			Enabled:        getEnvAsBool("ML_ENABLED", true),
			BaseURL:        getEnv("ML_SERVICE_URL", "http://localhost:8000"),
			HealthTimeout:  getEnvAsDuration("ML_HEALTH_TIMEOUT", 5*time.Second),
			PredictTimeout: getEnvAsDuration("ML_PREDICT_TIMEOUT", 10*time.Second),
			MaxAttempts:    getEnvAsInt("ML_MAX_ATTEMPTS", 3),
			BackoffStep:    getEnvAsDuration("ML_BACKOFF_STEP", time.Second),
			HealthCacheTTL: getEnvAsDuration("ML_HEALTH_CACHE_TTL", 0),
		},
		Training: TrainingConfig{
			Store:             getEnv("TRAINING_STORE", StorePostgres),
			CollectionEnabled: getEnvAsBool("TRAINING_COLLECTION_ENABLED", true),
			WriteTimeout:      getEnvAsDuration("TRAINING_WRITE_TIMEOUT", 5*time.Second),
			ExportDir:         getEnv("TRAINING_EXPORT_DIR", "./exports"),
			SplitRatio:        getEnvAsFloat("TRAINING_SPLIT_RATIO", 0.8),
			LockTTL:           getEnvAsDuration("TRAINING_EXPORT_LOCK_TTL", 5*time.Minute),
		},
		Synthetic: SyntheticConfig{
			PerTask:     getEnvAsInt("SYNTHETIC_PER_TASK", 200),
			Seed:        int64(getEnvAsInt("SYNTHETIC_SEED", 0)),
			HistoryDays: getEnvAsInt("SYNTHETIC_HISTORY_DAYS", 90),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "haemologix-decision-core"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Training store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Validate rejects settings that would make the decision core misbehave silently
func (c *Config) Validate() error {
	if c.Training.SplitRatio < 0 || c.Training.SplitRatio > 1 {
		return fmt.Errorf("TRAINING_SPLIT_RATIO must be within [0,1], got %v", c.Training.SplitRatio)
	}
	if c.Training.Store != StorePostgres && c.Training.Store != StoreMemory {
		return fmt.Errorf("TRAINING_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Training.Store)
	}
	if c.Model.MaxAttempts < 1 {
		return fmt.Errorf("ML_MAX_ATTEMPTS must be at least 1, got %d", c.Model.MaxAttempts)
	}
	if c.Model.HealthTimeout <= 0 || c.Model.PredictTimeout <= 0 {
		return fmt.Errorf("ML timeouts must be positive")
	}
	if c.Training.WriteTimeout <= 0 {
		return fmt.Errorf("TRAINING_WRITE_TIMEOUT must be positive")
	}
	if c.Synthetic.PerTask < 0 {
		return fmt.Errorf("SYNTHETIC_PER_TASK must not be negative")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("750ms") or bare seconds ("5").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
