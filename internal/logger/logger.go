package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/npc-responder/internal/config"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	return SetupTo(os.Stdout, cfg)
}

// SetupTo is Setup writing to w. Terminal hosts point it away from stdout.
func SetupTo(w io.Writer, cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}

// WithResponderID adds the responder ID to logger context
func WithResponderID(logger *slog.Logger, responderID string) *slog.Logger {
	return logger.With("responder_id", responderID)
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
