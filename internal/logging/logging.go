package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Level represents logging severity.
type Level = zerolog.Level

var (
	mu               sync.RWMutex
	base             zerolog.Logger
	currentLevel     = zerolog.WarnLevel
	currentVerbosity = 0
)

// The level is process wide so that component loggers created earlier follow
// SetVerbosity.
func init() {
	zerolog.SetGlobalLevel(currentLevel)
	SetOutput(os.Stderr)
}

// SetOutput replaces the log destination. Terminals get a colored console
// writer, anything else plain console output.
func SetOutput(w io.Writer) {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: noColor}

	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(out).With().Timestamp().Logger()
}

// SetVerbosity configures logger output from count of -v flags (0-4).
func SetVerbosity(count int) {
	if count < 0 {
		count = 0
	}
	if count > 4 {
		count = 4
	}

	mu.Lock()
	defer mu.Unlock()
	currentVerbosity = count
	switch count {
	case 0:
		currentLevel = zerolog.WarnLevel
	case 1:
		currentLevel = zerolog.InfoLevel
	case 2:
		currentLevel = zerolog.DebugLevel
	default:
		currentLevel = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(currentLevel)
}

// Verbosity returns the stored -v count.
func Verbosity() int {
	mu.RLock()
	defer mu.RUnlock()
	return currentVerbosity
}

// LevelName returns current level label.
func LevelName() string {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel.String()
}

// ParseLevel returns Level + verbosity count from string.
func ParseLevel(s string) (Level, int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return zerolog.ErrorLevel, 0, nil
	case "warn", "warning":
		return zerolog.WarnLevel, 0, nil
	case "info":
		return zerolog.InfoLevel, 1, nil
	case "debug":
		return zerolog.DebugLevel, 2, nil
	case "trace":
		return zerolog.TraceLevel, 4, nil
	default:
		return zerolog.WarnLevel, Verbosity(), fmt.Errorf("unknown level %s", s)
	}
}

// Logger returns the process logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// For returns a logger tagged with component.
func For(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// Errorf always prints.
func Errorf(format string, args ...any) {
	l := Logger()
	l.Error().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	l := Logger()
	l.Warn().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	l := Logger()
	l.Info().Msgf(format, args...)
}

func Debugf(format string, args ...any) {
	l := Logger()
	l.Debug().Msgf(format, args...)
}

func Tracef(format string, args ...any) {
	l := Logger()
	l.Trace().Msgf(format, args...)
}
