// Package logger provides tagged console logging for the market simulator.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stdout, zerolog.InfoLevel)
)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	if w != os.Stdout && w != os.Stderr {
		out.NoColor = true
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetOutput redirects all log output to w, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, log.GetLevel())
}

// SetLevel sets the minimum level ("debug", "info", "warn", "error").
// Unknown names fall back to info.
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(level)
}

// Debug logs a debug message under tag.
func Debug(tag, msg string) {
	l := current()
	l.Debug().Str("tag", tag).Msg(msg)
}

// Info logs an informational message under tag.
func Info(tag, msg string) {
	l := current()
	l.Info().Str("tag", tag).Msg(msg)
}

// Success logs a completed step.
func Success(tag, msg string) {
	l := current()
	l.Info().Str("tag", tag).Bool("ok", true).Msg(msg)
}

// Warn logs a recoverable problem.
func Warn(tag, msg string) {
	l := current()
	l.Warn().Str("tag", tag).Msg(msg)
}

// Error logs a failure. It never exits.
func Error(tag, msg string) {
	l := current()
	l.Error().Str("tag", tag).Msg(msg)
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	l := current()
	l.Info().Str("version", version).Msg("marketsim: market simulation & dynamic pricing")
}

// Section starts a named block of output.
func Section(name string) {
	l := current()
	l.Info().Msg(fmt.Sprintf("-- %s --", name))
}

// Stats logs a single key/value statistic.
func Stats(key string, value interface{}) {
	l := current()
	l.Info().Interface(key, value).Msg("stat")
}
