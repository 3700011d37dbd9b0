package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = newLogger(os.Stdout, "console", zerolog.InfoLevel)
	log.Logger = Log
}

// Setup rebuilds the global logger. format is "console" or "json"; an
// unknown level falls back to info.
func Setup(levelStr, format string, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}

	Log = newLogger(out, format, level)
	log.Logger = Log
	zerolog.SetGlobalLevel(level)

	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
	}
}

func newLogger(out io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
