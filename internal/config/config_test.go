package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PINPOOL_WORKERS", "PINPOOL_PIN", "PINPOOL_TASKS", "PINPOOL_TASK_DURATION",
		"PINPOOL_PRODUCERS", "PINPOOL_RATE", "LOG_LEVEL", "LOG_FILE", "PINPOOL_METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, runtime.NumCPU(), cfg.Pool.Workers)
	assert.True(t, cfg.Pool.Pin)
	assert.Equal(t, 1000, cfg.Workload.Tasks)
	assert.Equal(t, time.Millisecond, cfg.Workload.TaskDuration)
	assert.Equal(t, 1, cfg.Workload.Producers)
	assert.Equal(t, float64(0), cfg.Workload.Rate)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Empty(t, cfg.App.LogFile)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PINPOOL_WORKERS", "3")
	t.Setenv("PINPOOL_PIN", "false")
	t.Setenv("PINPOOL_TASK_DURATION", "250us")
	t.Setenv("PINPOOL_RATE", "500.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.False(t, cfg.Pool.Pin)
	assert.Equal(t, 250*time.Microsecond, cfg.Workload.TaskDuration)
	assert.Equal(t, 500.5, cfg.Workload.Rate)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PINPOOL_TASKS", "many")
	t.Setenv("PINPOOL_PIN", "maybe")
	t.Setenv("PINPOOL_TASK_DURATION", "soon")

	cfg := Load()
	assert.Equal(t, 1000, cfg.Workload.Tasks)
	assert.True(t, cfg.Pool.Pin)
	assert.Equal(t, time.Millisecond, cfg.Workload.TaskDuration)
}
