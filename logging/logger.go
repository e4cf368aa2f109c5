// Package logging builds the slog loggers used by chainrun and captures the
// log output of each chain step.
//
// A Logger is built once from the logging section of the config:
//
//	logger, err := logging.New(cfg.Logging)
//	if err != nil {
//		return err
//	}
//	defer logger.Close()
//
// Step capture is layered on top with a LoggerHook (see NewCapturingLoggerHook),
// which the Logging middleware uses to hand each step its own logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"
)

// Defaults applied by New to an empty Config.
const (
	DefaultLevel  = "info"
	DefaultFormat = "json"
	DefaultOutput = "stdout"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

type handlerFactory func(io.Writer, *slog.HandlerOptions) slog.Handler

var formats = map[string]handlerFactory{
	"json": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) },
	"text": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) },
}

// Config is the logging section of the chainrun config.
type Config struct {
	// Level is one of debug, info, warn or error. Case-insensitive.
	Level string `yaml:"level"`
	// Format is json or text.
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path opened for appending.
	Output string `yaml:"output"`
	// AddSource includes the caller's file and line in each record.
	AddSource bool `yaml:"add_source"`

	// Writer overrides Output when set. Not configurable from YAML.
	Writer io.Writer `yaml:"-"`
}

// Logger is the process logger. It remembers the effective Config and owns
// the log file, if Output named one.
type Logger struct {
	*slog.Logger
	config Config
	closer io.Closer
}

// New builds a Logger from cfg, filling in defaults for empty fields.
func New(cfg Config) (*Logger, error) {
	level, err := cfg.normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	l := &Logger{config: cfg}
	w := cfg.Writer
	if w == nil {
		if w, l.closer, err = openOutput(cfg.Output); err != nil {
			return nil, err
		}
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: rfc3339Time,
	}
	l.Logger = slog.New(formats[cfg.Format](w, opts))
	return l, nil
}

// Config returns the effective configuration, defaults included.
func (l *Logger) Config() Config {
	return l.config
}

// Close closes the log file. It is a no-op for stdout, stderr and Writer.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// normalize fills in defaults and checks the level and format.
func (cfg *Config) normalize() (slog.Level, error) {
	if cfg.Level == "" {
		cfg.Level = DefaultLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return level, err
	}
	if _, ok := formats[cfg.Format]; !ok {
		return level, fmt.Errorf("format must be one of: %s", strings.Join(slices.Sorted(maps.Keys(formats)), ", "))
	}
	return level, nil
}

func parseLevel(level string) (slog.Level, error) {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q, must be one of: debug, info, warn, error", level)
}

// rfc3339Time shortens the top-level timestamp to second precision.
func rfc3339Time(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
	}
	return a
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %q: %w", output, err)
	}
	return f, f, nil
}
