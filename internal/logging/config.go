package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	// File is where log lines go. Empty means stdout, which is only safe
	// when no TUI owns the terminal.
	File string `mapstructure:"file"`
}

var (
	global = zerolog.Nop()
	once   sync.Once
	closer io.Closer
)

// New creates a configured zerolog.Logger writing to w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: cfg.File != ""}
	}
	return zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

// Init initialises the global logger and bridges stdlib log into it.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		var w io.Writer = os.Stdout
		if cfg.File != "" {
			if mkErr := os.MkdirAll(filepath.Dir(cfg.File), 0755); mkErr != nil {
				err = fmt.Errorf("failed to create log directory: %w", mkErr)
				return
			}
			f, openErr := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if openErr != nil {
				err = fmt.Errorf("failed to open log file: %w", openErr)
				return
			}
			w = f
			closer = f
		}

		global = New(cfg, w)

		stdlog.SetFlags(0)
		stdlog.SetOutput(global.With().Str("source", "stdlog").Logger())
	})
	return err
}

// Close releases the log file opened by Init, if any.
func Close() error {
	if closer == nil {
		return nil
	}
	return closer.Close()
}

// L returns the global logger. It discards everything until Init runs.
func L() zerolog.Logger {
	return global
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return global.With().Str(FieldComponent, name).Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
