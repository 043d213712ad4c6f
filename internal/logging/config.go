// Package logging builds the zerolog loggers used by the binaries and tests.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "INGEST_LOG_LEVEL"
	EnvLogTimestamp = "INGEST_LOG_TIMESTAMP"
	EnvLogNoColor   = "INGEST_LOG_NOCOLOR"
	EnvLogFormat    = "INGEST_LOG_FORMAT"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config selects level and rendering for one logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Format    string
}

func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Timestamp: false, NoColor: true, Format: FormatConsole}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true, Format: FormatConsole}
	}
}

// ApplyEnv overlays INGEST_LOG_* values read through getenv. Unparseable values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if lvl, ok := parseLevel(getenv(EnvLogLevel)); ok {
		c.Level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogTimestamp)); ok {
		c.Timestamp = v
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		c.NoColor = v
	}
	switch strings.ToLower(strings.TrimSpace(getenv(EnvLogFormat))) {
	case FormatJSON:
		c.Format = FormatJSON
	case FormatConsole:
		c.Format = FormatConsole
	}
}

// New returns a logger for app using the profile defaults plus environment overrides.
func New(w io.Writer, app string, profile Profile) zerolog.Logger {
	cfg := DefaultConfig(profile)
	cfg.ApplyEnv(os.Getenv)
	return NewWithConfig(w, app, cfg)
}

func NewWithConfig(w io.Writer, app string, cfg Config) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	out := w
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		}
	}
	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if app != "" {
		ctx = ctx.Str("app", app)
	}
	return ctx.Logger()
}

// Runtime is the stderr logger used by the binaries.
func Runtime(app string) zerolog.Logger {
	return New(os.Stderr, app, ProfileRuntime)
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
