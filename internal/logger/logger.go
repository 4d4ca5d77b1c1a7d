// Package logger builds the zap loggers used by the pinpool binaries.
// Library packages never construct loggers themselves; they receive one
// through their Config.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level         zapcore.Level
	ConsoleOutput bool
	FileOutput    bool
	Filename      string
	MaxSize       int  // megabytes
	MaxAge        int  // days
	MaxBackups    int  // number of backups to keep
	Compress      bool // compress rotated files
	JSONFormat    bool // use JSON format for console output
}

const (
	DefaultFilename   = "logs/pinpool.log"
	DefaultMaxSize    = 100 // megabytes
	DefaultMaxAge     = 30  // days
	DefaultMaxBackups = 10
	DefaultCompress   = true
)

// Option is a function that configures the logger
type Option func(*Config)

// WithLevel sets the logging level. Unknown names fall back to info.
func WithLevel(level string) Option {
	return func(c *Config) {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			parsed = zapcore.InfoLevel
		}
		c.Level = parsed
	}
}

// WithConsoleOutput enables/disables console output
func WithConsoleOutput(enabled bool) Option {
	return func(c *Config) { c.ConsoleOutput = enabled }
}

// WithFile enables rotated file output to filename; an empty name disables it
func WithFile(filename string) Option {
	return func(c *Config) {
		c.FileOutput = filename != ""
		if filename != "" {
			c.Filename = filename
		}
	}
}

// WithJSONFormat enables JSON format for console output
func WithJSONFormat(enabled bool) Option {
	return func(c *Config) { c.JSONFormat = enabled }
}

// WithRotationConfig sets the log rotation configuration
func WithRotationConfig(maxSize, maxAge, maxBackups int, compress bool) Option {
	return func(c *Config) {
		c.MaxSize = maxSize
		c.MaxAge = maxAge
		c.MaxBackups = maxBackups
		c.Compress = compress
	}
}

// NewForCLI creates a logger with human-readable console output and an
// optional rotated log file
func NewForCLI(level, filename string) (*zap.Logger, error) {
	return New(
		WithLevel(level),
		WithConsoleOutput(true),
		WithJSONFormat(false),
		WithFile(filename),
	)
}

// New creates a logger from options
func New(opts ...Option) (*zap.Logger, error) {
	config := &Config{
		Level:         zapcore.InfoLevel,
		ConsoleOutput: true,
		Filename:      DefaultFilename,
		MaxSize:       DefaultMaxSize,
		MaxAge:        DefaultMaxAge,
		MaxBackups:    DefaultMaxBackups,
		Compress:      DefaultCompress,
	}
	for _, opt := range opts {
		opt(config)
	}

	var cores []zapcore.Core

	if config.ConsoleOutput {
		var consoleEncoder zapcore.Encoder
		if config.JSONFormat {
			jsonConfig := zap.NewProductionEncoderConfig()
			jsonConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			jsonConfig.StacktraceKey = ""
			consoleEncoder = zapcore.NewJSONEncoder(jsonConfig)
		} else {
			consoleConfig := zap.NewDevelopmentEncoderConfig()
			consoleConfig.EncodeTime = zapcore.RFC3339TimeEncoder
			consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			consoleConfig.EncodeCaller = zapcore.ShortCallerEncoder
			consoleEncoder = zapcore.NewConsoleEncoder(consoleConfig)
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), config.Level))
	}

	if config.FileOutput {
		if err := os.MkdirAll(filepath.Dir(config.Filename), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}

		fileEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:      "ts",
			LevelKey:     "level",
			NameKey:      "logger",
			CallerKey:    "caller",
			MessageKey:   "msg",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		})
		cores = append(cores, zapcore.NewCore(
			fileEncoder,
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   config.Filename,
				MaxSize:    config.MaxSize,
				MaxAge:     config.MaxAge,
				MaxBackups: config.MaxBackups,
				Compress:   config.Compress,
			}),
			config.Level,
		))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("no output configured for logger")
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
