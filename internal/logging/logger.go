// Package logging bootstraps the process-wide zerolog logger, matching the
// teacher's internal/common/logger setup (console writer in debug, leveled
// JSON otherwise).
package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger and returns it for explicit
// injection into services that prefer not to touch the global.
func Init(serviceName string, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output zerolog.Logger
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		console := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				return fmt.Sprintf("| %-6s|", i)
			},
		}
		output = zerolog.New(console)
	} else {
		output = zerolog.New(os.Stdout)
	}

	logger := output.Level(level).With().Timestamp().Str("service", serviceName).Logger()
	log.Logger = logger
	logger.Info().Msg("logger initialized")
	return logger
}
