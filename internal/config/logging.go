package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process logger from LoggingConfig. JSON output is the
// default; "console" switches to the human-readable writer for local
// development. The logger is also installed as the zerolog global so
// package-level logging shares the same sink.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var sink io.Writer
	switch strings.ToLower(cfg.Format) {
	case "console":
		sink = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	default:
		sink = os.Stdout
	}

	logger := zerolog.New(sink).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
