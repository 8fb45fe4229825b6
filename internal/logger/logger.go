// Package logger holds the process-wide zerolog logger. The server
// logs to stderr (or a file when daemonized); the attach client puts
// the terminal in raw mode, so it must log to a file or not at all.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var Logger zerolog.Logger

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func init() {
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Configure sets up the global logger writing to w. Pretty console
// output is used when pretty is true, JSON lines otherwise.
func Configure(level LogLevel, w io.Writer, pretty bool) {
	var zeroLevel zerolog.Level
	switch level {
	case LevelDebug:
		zeroLevel = zerolog.DebugLevel
	case LevelInfo:
		zeroLevel = zerolog.InfoLevel
	case LevelWarn:
		zeroLevel = zerolog.WarnLevel
	case LevelError:
		zeroLevel = zerolog.ErrorLevel
	default:
		zeroLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(zeroLevel)

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(w).With().Timestamp().Logger()
	log.Logger = Logger
}

// ConfigureFile directs logs to the named file, creating it if needed.
// Used by the attach client, whose stderr is the raw-mode terminal.
func ConfigureFile(level LogLevel, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	Configure(level, f, false)
	return nil
}

// Discard silences all logging. The client uses this when no log file
// is configured.
func Discard() {
	Logger = zerolog.New(io.Discard)
	log.Logger = Logger
}

// LevelFromEnv reads CITYMUX_DEBUG to pick the default log level.
func LevelFromEnv() LogLevel {
	debug := os.Getenv("CITYMUX_DEBUG")
	if strings.ToLower(debug) == "true" || debug == "1" {
		return LevelDebug
	}
	return LevelInfo
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
