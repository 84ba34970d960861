package config

import (
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/jengzang/transit-reports-backend-go/internal/database"
	"github.com/jengzang/transit-reports-backend-go/internal/geofence"
)

// Config 应用配置
type Config struct {
	Port      string
	JWTSecret string

	Database database.Config

	// Admission and verification radius in kilometers
	GeofenceThresholdKm float64

	// Per-client token bucket
	RateLimitRPS   float64
	RateLimitBurst int

	RequestTimeout time.Duration

	// Events; AMQPURL empty disables publishing
	AMQPURL      string
	AMQPExchange string

	LogLevel  string
	LogFormat string
}

// Load 加载配置. Values from a .env file in the working directory are applied
// first without overriding the real environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using system environment variables")
	}

	return &Config{
		Port:      getEnv("PORT", ":8080"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		Database: database.Config{
			Driver:       getEnv("DB_DRIVER", database.DriverSQLite),
			Path:         getEnv("DB_PATH", "./data/reports.db"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			User:         getEnv("DB_USER", "server"),
			Password:     getEnv("DB_PASSWORD", "secret"),
			Name:         getEnv("DB_NAME", "transit"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			BusyTimeout:  getDurationEnv("DB_BUSY_TIMEOUT", 10*time.Second),
		},

		GeofenceThresholdKm: getFloatEnv("GEOFENCE_THRESHOLD_KM", geofence.GeofenceThresholdKm),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 20),

		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 5*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "transit-reports"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
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
		log.Warnf("invalid duration for %s: %q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warnf("invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warnf("invalid number for %s: %q, using %v", key, value, defaultValue)
	}
	return defaultValue
}
