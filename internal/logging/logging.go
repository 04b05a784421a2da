// Package logging builds the slog logger used across the CLI. Records go to a rotating
// file and, optionally, to stderr so command output on stdout stays clean.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultFileName = "feedbacktool.log"
	redacted        = "[REDACTED]"
)

type Config struct {
	Level      string `yaml:"level" env:"FEEDBACKTOOL_LOG_LEVEL"`
	Dir        string `yaml:"dir" env:"FEEDBACKTOOL_LOG_DIR"`
	Dev        bool   `yaml:"dev" env:"FEEDBACKTOOL_LOG_DEV"`
	Console    bool   `yaml:"console" env:"FEEDBACKTOOL_LOG_CONSOLE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"FEEDBACKTOOL_LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"FEEDBACKTOOL_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"FEEDBACKTOOL_LOG_MAX_AGE_DAYS"`
}

// Logger pairs the slog logger with the rotating file behind it.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// ParseLevel maps debug|info|warn|error; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New opens the log file under cfg.Dir. An empty Dir logs to stderr only.
func New(cfg Config) (*Logger, error) {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 14
	}

	var (
		writers []io.Writer
		file    *lumberjack.Logger
	)
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, defaultFileName),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, file)
	}
	if cfg.Console || file == nil {
		writers = append(writers, os.Stderr)
	}

	return &Logger{Logger: slog.New(newHandler(io.MultiWriter(writers...), cfg)), file: file}, nil
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		AddSource:   cfg.Dev,
		ReplaceAttr: replaceAttr,
	}
	if cfg.Dev {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// sensitiveKeys never reach the log in clear text.
var sensitiveKeys = map[string]bool{
	"token":         true,
	"jwt_token":     true,
	"password":      true,
	"authorization": true,
	"api_key":       true,
	"secret":        true,
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			return slog.String(slog.TimeKey, t.Format(time.RFC3339))
		}
	}
	return a
}

// Writer builds a logger over w with the same handler settings; used by tests.
func Writer(w io.Writer, cfg Config) *slog.Logger {
	return slog.New(newHandler(w, cfg))
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
