// Package logging builds the process logger: a human readable console stream
// and an optional rotating JSON file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level   string
	Console bool
	// File enables JSON logging to a rotating file when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Out replaces stderr for the console stream.
	Out io.Writer
}

func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}

	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the logger and a closer for its file. The closer is never nil.
func New(cfg *Config) (zerolog.Logger, io.Closer, error) {
	if cfg == nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("config is nil")
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if cfg.Console {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}

		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
		})
	}

	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}

		writers = append(writers, file)
		closer = file
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("app", "voice-commander").
		Logger()

	return logger, closer, nil
}
