// Package config provides application configuration management.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host            string
	Port            string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Cat API configuration
	CatAPIURL        string
	CatAPIKey        string
	CatAPITimeout    time.Duration
	FallbackImageURL string

	// Event cadence, in multiples of IntervalUnit
	MinInterval  int
	MaxInterval  int
	IntervalUnit time.Duration

	// Redis / lifecycle notices
	RedisAddr        string
	RedisUsername    string
	RedisPassword    string
	RedisDB          int
	RedisTLSEnabled  bool
	RedisTLSInsecure bool
	LifecycleChannel string
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	minInterval := getEnvInt("EVENT_MIN_INTERVAL", 1)
	maxInterval := getEnvInt("EVENT_MAX_INTERVAL", 5)
	if minInterval < 1 {
		log.Printf("EVENT_MIN_INTERVAL must be >= 1, got %d; using 1", minInterval)
		minInterval = 1
	}
	if maxInterval < minInterval {
		log.Printf("EVENT_MAX_INTERVAL %d is below EVENT_MIN_INTERVAL %d; using %d", maxInterval, minInterval, minInterval)
		maxInterval = minInterval
	}
	unit := getEnvDuration("EVENT_INTERVAL_UNIT", time.Second)
	if unit <= 0 {
		log.Printf("EVENT_INTERVAL_UNIT must be positive, got %s; using 1s", unit)
		unit = time.Second
	}

	return &Config{
		Host:             getEnv("HOST", "0.0.0.0"),
		Port:             getEnv("PORT", "8080"),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		CatAPIURL:        getEnv("CAT_API_URL", "https://api.thecatapi.com/v1/images/search"),
		CatAPIKey:        os.Getenv("CAT_API_KEY"),
		CatAPITimeout:    getEnvDuration("CAT_API_TIMEOUT", 10*time.Second),
		FallbackImageURL: getEnv("FALLBACK_IMAGE_URL", "https://cataas.com/cat"),
		MinInterval:      minInterval,
		MaxInterval:      maxInterval,
		IntervalUnit:     unit,
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisUsername:    getEnv("REDIS_USERNAME", ""),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisTLSEnabled:  getEnvBool("REDIS_TLS_ENABLED", false),
		RedisTLSInsecure: getEnvBool("REDIS_TLS_INSECURE_SKIP_VERIFY", false),
		LifecycleChannel: getEnv("LIFECYCLE_CHANNEL", "catchat-lifecycle"),
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s: %s, using default %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s: %s, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "y":
			return true
		case "0", "false", "no", "n":
			return false
		default:
			log.Printf("Invalid bool for %s: %s, using default %t", key, value, defaultValue)
		}
	}
	return defaultValue
}
