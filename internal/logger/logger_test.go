package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestWithLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			WithLevel(tt.name)(c)
			assert.Equal(t, tt.want, c.Level)
		})
	}
}

func TestNew_NoOutput(t *testing.T) {
	_, err := New(WithConsoleOutput(false))
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "pinpool.log")

	log, err := New(WithConsoleOutput(false), WithFile(filename), WithLevel("debug"))
	require.NoError(t, err)

	log.Named("pool").Debug("worker started", zap.Int("worker_id", 3))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"worker started"`)
	assert.Contains(t, string(data), `"worker_id":3`)
	assert.Contains(t, string(data), `"logger":"pool"`)
}

func TestWithFile_EmptyDisables(t *testing.T) {
	c := &Config{Filename: DefaultFilename}
	WithFile("")(c)
	assert.False(t, c.FileOutput)
	assert.Equal(t, DefaultFilename, c.Filename)
}
