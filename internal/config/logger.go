package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, err
	}
	return level, nil
}

// NewLogger builds the run logger. Output "stderr" (or empty) writes to
// stderr, "stdout" to standard output, anything else is a file opened for
// appending. The returned closer releases that file.
func NewLogger(cfg LoggingConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = stderr
		closer io.Closer = nopCloser{}
	)
	switch cfg.OutputPath {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, cfg.Format)
	}
	return slog.New(handler), closer, nil
}
