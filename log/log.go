// Package log wraps zerolog with the printf-style surface used across this repo.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.Mutex
	std = newLogger(os.Stderr)
)

const debugEnvKey = `NEURON_RUN_DEBUG`

func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if len(os.Getenv(debugEnvKey)) > 0 {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.StampMilli}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// SetOutput redirects all subsequent log lines, e.g. to a job log file.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std = newLogger(w)
}

func Debugf(format string, v ...interface{}) { std.Debug().Msgf(format, v...) }

func Infof(format string, v ...interface{}) { std.Info().Msgf(format, v...) }

func Warnf(format string, v ...interface{}) { std.Warn().Msgf(format, v...) }

func Errorf(format string, v ...interface{}) { std.Error().Msgf(format, v...) }
