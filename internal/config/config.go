package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Ops HTTP endpoint (health/readiness)
	OpsAddr string

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Workflow engine
	TemporalHostPort  string
	TemporalNamespace string

	// Routing
	TaskQueuePrefix string
	ShardCount      int

	// Scheduled cleanup
	CleanupRetentionDays int
	CleanupCron          string

	// Namespace DDL timeout
	MigrationTimeout time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		OpsAddr: getEnv("OPS_ADDR", "0.0.0.0:8081"),

		// Database defaults for local development
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 25432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "tenant_lifecycle"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		TemporalHostPort:  getEnv("TEMPORAL_HOSTPORT", "localhost:7233"),
		TemporalNamespace: getEnv("TEMPORAL_NAMESPACE", "default"),

		TaskQueuePrefix: getEnv("TASK_QUEUE_PREFIX", "tenantflow"),
		ShardCount:      getEnvInt("SHARD_COUNT", 8),

		CleanupRetentionDays: getEnvInt("CLEANUP_RETENTION_DAYS", 30),
		CleanupCron:          getEnv("CLEANUP_CRON", "0 3 * * *"),

		MigrationTimeout: getEnvDuration("MIGRATION_TIMEOUT", 5*time.Minute),
	}

	// Validate required fields
	if cfg.ShardCount < 1 {
		return nil, fmt.Errorf("SHARD_COUNT must be at least 1")
	}
	if cfg.CleanupRetentionDays < 1 {
		return nil, fmt.Errorf("CLEANUP_RETENTION_DAYS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
