package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log discards until Init runs, so library code can log unconditionally.
var Log = zerolog.Nop()

// Init initializes the global logger
func Init(env string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		// Pretty console output for development
		Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			With().
			Timestamp().
			Caller().
			Logger()
	} else {
		// JSON output for production
		Log = zerolog.New(os.Stderr).
			With().
			Timestamp().
			Logger()
	}
}

// Helper functions for common log levels
func Info() *zerolog.Event {
	return Log.Info()
}

func Error() *zerolog.Event {
	return Log.Error()
}

func Warn() *zerolog.Event {
	return Log.Warn()
}

func Debug() *zerolog.Event {
	return Log.Debug()
}

func Fatal() *zerolog.Event {
	return Log.Fatal()
}
