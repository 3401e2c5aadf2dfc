package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Configure sets the process-wide logger. Production defaults to JSON at info,
// everything else to text at debug. Non-empty level or format override that.
func Configure(env, level, format string) {
	var handler slog.Handler

	fallback := slog.LevelDebug
	if env == "production" {
		fallback = slog.LevelInfo
		if format == "" {
			format = "json"
		}
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level, fallback)}

	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Configure("development", "", "")
	}
	return defaultLogger
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
