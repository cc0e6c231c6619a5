package contract

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	InitLogger("info")
}

// InitLogger configures the package logger.
// level can be: "debug", "info", "warn", "error". Unknown levels fall back to info.
// Debug output is human-friendly console format; everything else is JSON lines.
// Logs always go to stderr so stdout stays clean for report output.
func InitLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if lvl <= zerolog.DebugLevel {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	logger = zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// Logger returns the configured logger for structured events.
func Logger() *zerolog.Logger {
	return &logger
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	logger.Error().Err(err).Msgf("Fatal %s", msg)
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	logger.Warn().Err(err).Msg(msg)
}
