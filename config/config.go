package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Redis configuration (empty disables the claim limiter)
	RedisAddr string

	// Kafka configuration (empty broker list disables the relay)
	KafkaBrokers []string
	KafkaTopic   string

	// Operational HTTP server for /metrics and /healthz
	MetricsPort string

	// Global bonus claim cooldown
	GlobalClaimCooldown time.Duration

	// Admin account seeded at startup
	AdminUsername string
	AdminPassword string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		KafkaTopic:  os.Getenv("KAFKA_TOPIC"),

		MetricsPort: os.Getenv("METRICS_PORT"),

		GlobalClaimCooldown: 24 * time.Hour,

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				config.KafkaBrokers = append(config.KafkaBrokers, broker)
			}
		}
	}
	if config.KafkaTopic == "" {
		config.KafkaTopic = "betbook.events"
	}

	if config.MetricsPort == "" {
		config.MetricsPort = "9090"
	}

	if hours := os.Getenv("GLOBAL_CLAIM_COOLDOWN_HOURS"); hours != "" {
		if parsed, err := strconv.Atoi(hours); err == nil && parsed > 0 {
			config.GlobalClaimCooldown = time.Duration(parsed) * time.Hour
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.AdminUsername == "" || config.AdminPassword == "" {
			return nil, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required")
		}
	}

	return config, nil
}
