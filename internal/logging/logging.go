package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development gets the console writer,
// everything else ships JSON lines.
func New(environment string) zerolog.Logger {
	if environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
