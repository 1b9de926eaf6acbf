package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Config holds logging configuration
type Config struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"json"`
	Output string `env:"LOG_OUTPUT" default:"stdout"`
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "json", Output: "stdout"}
}

var (
	levels = map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	outputs = map[string]io.Writer{
		"stdout":  os.Stdout,
		"stderr":  os.Stderr,
		"discard": io.Discard,
	}
)

// Logger is slog with subsystem helpers for the commit pipeline and remote clients.
type Logger struct {
	*slog.Logger
}

// NewLogger builds a logger from cfg. Unknown values fall back to info, json and stdout.
func NewLogger(cfg *Config) *Logger {
	level, ok := levels[strings.ToLower(cfg.Level)]
	if !ok {
		level = slog.LevelInfo
	}
	writer, ok := outputs[strings.ToLower(cfg.Output)]
	if !ok {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String("timestamp", a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// WithComponent tags every entry with the emitting component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// WithRequest tags entries with the chi request id, when the request carries one.
func (l *Logger) WithRequest(ctx context.Context) *Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return &Logger{Logger: l.Logger.With("request_id", id)}
	}
	return l
}

func (l *Logger) subsystem(level slog.Level, name, msg string, args []any) {
	l.Logger.Log(context.Background(), level, msg, append([]any{"subsystem", name}, args...)...)
}

// Commit records a successful write of one record inside a batch commit.
func (l *Logger) Commit(msg, recordKey string, attrs ...slog.Attr) {
	l.subsystem(slog.LevelInfo, "commit", msg, attrArgs([]any{"record_key", recordKey}, attrs))
}

// CommitError records a failed or skipped record write inside a batch commit.
func (l *Logger) CommitError(msg string, err error, recordKey string, attrs ...slog.Attr) {
	l.subsystem(slog.LevelError, "commit", msg, attrArgs([]any{"record_key", recordKey, "error", err.Error()}, attrs))
}

// Performance records how long a remote or batch operation took.
func (l *Logger) Performance(operation string, duration time.Duration, attrs ...slog.Attr) {
	l.Logger.Info("performance", attrArgs([]any{"operation", operation, "duration_ms", duration.Milliseconds()}, attrs)...)
}

func (l *Logger) SharePoint(msg string, args ...any) { l.subsystem(slog.LevelInfo, "sharepoint", msg, args) }
func (l *Logger) Graph(msg string, args ...any)      { l.subsystem(slog.LevelDebug, "graph", msg, args) }
func (l *Logger) Database(msg string, args ...any)   { l.subsystem(slog.LevelDebug, "database", msg, args) }

func attrArgs(args []any, attrs []slog.Attr) []any {
	for _, a := range attrs {
		args = append(args, a)
	}
	return args
}

var defaultLogger *Logger

// SetDefault sets the process-wide logger returned by Default.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the process-wide logger, creating a json/info one on first use.
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = NewLogger(DefaultConfig())
	}
	return defaultLogger
}
