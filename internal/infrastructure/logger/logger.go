// Package logger builds the zerolog root logger for the assistant service.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/config"
)

// New creates the root logger. Production environments emit JSON to stdout,
// everything else gets the human readable console writer.
func New(cfg *config.Config) zerolog.Logger {
	var sink io.Writer = os.Stdout
	if cfg.Environment != "production" {
		sink = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(sink).
		Level(parseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()
}

func parseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
