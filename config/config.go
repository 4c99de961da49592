package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

const (
	BackendSQL     = "sql"
	BackendMongoDB = "mongodb"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all configuration for the incident board service
type Config struct {
	// Server configuration
	Port        string
	FrontendURL string
	ServeUI     bool

	// Store selection
	StoreBackend string
	DBDriver     string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// How long to keep retrying the first database ping
	DBPingMaxWait time.Duration

	// MongoDB configuration
	MongoURI      string
	MongoDatabase string

	// RabbitMQ configuration, publishing is disabled when AMQPURL is empty
	AMQPURL            string
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	// Rate limiting
	RateLimit       int
	RateLimitWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables, reading a .env file first if present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "5000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		ServeUI:     getBoolEnv("SERVE_UI", true),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendSQL)),
		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "incidents"),
		SQLitePath: getEnv("SQLITE_PATH", "incidents.db"),

		DBPingMaxWait: getDurationEnv("DB_PING_MAX_WAIT", 60*time.Second),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "incidents"),

		AMQPURL:            getEnv("AMQP_URL", ""),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "incidents"),
		RabbitMQRoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "report.created"),

		// Same budget as the public form has always had: 100 requests per 15 minutes
		RateLimit:       getIntEnv("RATE_LIMIT", 100),
		RateLimitWindow: getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	return config
}

// Validate checks that the selected backends are supported
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQL:
		if c.DBDriver != DriverMySQL && c.DBDriver != DriverSQLite {
			return fmt.Errorf("unsupported DB_DRIVER %q, expected %q or %q", c.DBDriver, DriverMySQL, DriverSQLite)
		}
	case BackendMongoDB:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the %q backend", BackendMongoDB)
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q, expected %q or %q", c.StoreBackend, BackendSQL, BackendMongoDB)
	}
	if c.RateLimit <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d per %v", c.RateLimit, c.RateLimitWindow)
	}
	return nil
}

// StoreName describes the configured store for health output
func (c *Config) StoreName() string {
	if c.StoreBackend == BackendMongoDB {
		return BackendMongoDB
	}
	return c.DBDriver
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
