package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the vehicle issue service
type Config struct {
	// Database configuration
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBPingMaxWait  time.Duration

	// Server configuration
	Port               string
	AllowedOrigins     string
	RateLimitPerMinute int

	// AI gateway configuration
	LLMProvider       string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	AITimeout         time.Duration
	AITemperature     float64
	AITopK            int
	AITopP            float64
	AIMaxOutputTokens int

	// Upload limits
	MaxImageBytes  int64
	MaxUploadBytes int64

	// RabbitMQ configuration
	RabbitMQ RabbitMQConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RabbitMQConfig holds the broker settings for issue lifecycle events.
type RabbitMQConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Exchange   string
	RoutingKey string
}

// GetAMQPURL returns the AMQP connection URL.
func (r RabbitMQConfig) GetAMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Database defaults
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "server"),
		DBPassword:     getEnv("DB_PASSWORD", "secret_app"),
		DBName:         getEnv("DB_NAME", "vehicle_service"),
		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBPingMaxWait:  getDurationEnv("DB_PING_MAX_WAIT", 60*time.Second),

		// Server defaults
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 30),

		// AI defaults
		LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		AITimeout:         getDurationEnv("AI_TIMEOUT", 30*time.Second),
		AITemperature:     getFloatEnv("AI_TEMPERATURE", 0.4),
		AITopK:            getIntEnv("AI_TOP_K", 32),
		AITopP:            getFloatEnv("AI_TOP_P", 1.0),
		AIMaxOutputTokens: getIntEnv("AI_MAX_OUTPUT_TOKENS", 1024),

		// Photo analysis accepts up to 10 MB; the upload step caps at 5 MB.
		MaxImageBytes:  int64(getIntEnv("MAX_IMAGE_BYTES", 10<<20)),
		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 5<<20)),

		RabbitMQ: RabbitMQConfig{
			Host:       getEnv("AMQP_HOST", "localhost"),
			Port:       getEnv("AMQP_PORT", "5672"),
			User:       getEnv("AMQP_USER", "guest"),
			Password:   getEnv("AMQP_PASSWORD", "guest"),
			Exchange:   getEnv("AMQP_EXCHANGE", "vehicle-issues"),
			RoutingKey: getEnv("AMQP_ISSUE_ROUTING_KEY", "issue.lifecycle"),
		},

		// Logging defaults
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return config
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

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
