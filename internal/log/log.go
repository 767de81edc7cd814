// Package log wraps log/slog with a rotating JSON log file and an optional
// console handler. A nil *Logger is valid: debug and info messages are
// dropped and warnings and errors go to the default slog logger.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var ErrLevel = errors.New("log: unknown level")

type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time

	file *lumberjack.Logger
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrLevel, level)
}

// New logs JSON records to dir/glideopt.slog (rotated) when dir is set and
// human-readable text to console when it is non-nil.
func New(level, dir string, console io.Writer) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	l := &Logger{Start: time.Now()}
	var handlers []slog.Handler
	if dir != "" {
		l.file = &lumberjack.Logger{
			Filename:   filepath.Join(dir, "glideopt.slog"),
			MaxSize:    32, // MB
			MaxBackups: 3,
			Compress:   true,
		}
		if lvl == slog.LevelDebug {
			l.file.MaxSize = 256
		}
		l.LogFile = l.file.Filename
		handlers = append(handlers, slog.NewJSONHandler(l.file, opts))
	}
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, opts))
	}
	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewTextHandler(io.Discard, opts))
	}
	l.Logger = slog.New(fanout(handlers))

	l.Debug("logging started",
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH),
		slog.Int("NumCPUs", runtime.NumCPU()))
	return l, nil
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) Debug(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		l.Logger.Debug(msg, args...)
	}
}

func (l *Logger) Debugf(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		l.Logger.Debug(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		l.Logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		slog.Warn(msg, args...)
	} else {
		l.Logger.Warn(msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		slog.Error(msg, args...)
	} else {
		l.Logger.Error(msg, args...)
	}
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		Start:   l.Start,
		file:    l.file,
	}
}
