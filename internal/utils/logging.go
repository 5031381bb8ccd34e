package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the CLI logger. Debug mode switches to a colorized
// console writer at debug level; otherwise output is JSON at info.
func NewLogger(debug bool) (*zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if debug {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = zerolog.New(writer).Level(zerolog.DebugLevel)
	} else {
		logger = zerolog.New(os.Stderr).Level(zerolog.InfoLevel)
	}
	logger = logger.With().Timestamp().Logger()

	return &logger, nil
}
