// Package config loads pinpool binary settings from the environment. A
// .env file in the working directory is read first.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds the base configuration
type Config struct {
	Pool     PoolConfig
	Workload WorkloadConfig
	App      AppConfig
}

// PoolConfig sizes and places the pool
type PoolConfig struct {
	Workers int
	Pin     bool
}

// WorkloadConfig describes the synthetic load the run command submits
type WorkloadConfig struct {
	Tasks        int
	TaskDuration time.Duration
	Producers    int
	Rate         float64 // tasks per second, 0 means unlimited
}

// AppConfig holds process-wide settings
type AppConfig struct {
	LogLevel    string
	LogFile     string
	MetricsAddr string
}

// Load loads configuration from environment variables with defaults value
func Load() *Config {
	return &Config{
		Pool: PoolConfig{
			Workers: getEnvInt("PINPOOL_WORKERS", runtime.NumCPU()),
			Pin:     getEnvBool("PINPOOL_PIN", true),
		},
		Workload: WorkloadConfig{
			Tasks:        getEnvInt("PINPOOL_TASKS", 1000),
			TaskDuration: getEnvDuration("PINPOOL_TASK_DURATION", time.Millisecond),
			Producers:    getEnvInt("PINPOOL_PRODUCERS", 1),
			Rate:         getEnvFloat("PINPOOL_RATE", 0),
		},
		App: AppConfig{
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFile:     getEnv("LOG_FILE", ""),
			MetricsAddr: getEnv("PINPOOL_METRICS_ADDR", ""),
		},
	}
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
