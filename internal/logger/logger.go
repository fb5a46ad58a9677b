// Package logger holds the process-wide slog logger. Engine packages accept
// an explicit *slog.Logger and fall back to L through Or.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger instance. It discards all output until Init is called.
var L = Discard()

const (
	logPrefix     = "flagctl-"
	logSuffix     = ".log"
	retentionDays = 14
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level
	Format  string     // "text" (default) or "json"
	LogDir  string     // When set, write to a dated file in this directory
	Output  io.Writer  // Destination when LogDir is empty. Default: os.Stderr
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Or returns l, or the global logger when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return L
}

// Init configures L. The returned function closes the log file, if any.
func Init(opts Options) (func() error, error) {
	noop := func() error { return nil }
	if !opts.Enabled {
		L = Discard()
		return noop, nil
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	closer := noop

	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return noop, err
		}
		cleanOldLogs(opts.LogDir, time.Now())

		name := filepath.Join(opts.LogDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return noop, err
		}
		out = f
		closer = f.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	switch strings.ToLower(opts.Format) {
	case "", "text":
		L = slog.New(slog.NewTextHandler(out, handlerOpts))
	case "json":
		L = slog.New(slog.NewJSONHandler(out, handlerOpts))
	default:
		_ = closer()
		return noop, fmt.Errorf("logger: unknown format %q", opts.Format)
	}
	return closer, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logger: %w", err)
	}
	return level, nil
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(logDir string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// flagctl-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}
