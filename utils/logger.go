package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides leveled logging throughout the application.
type Logger struct {
	entry *logrus.Logger
}

// NewLogger creates a new Logger writing to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerWith(os.Stdout, "info", false)
}

// NewLoggerWith creates a Logger writing to out. Unknown levels fall back to info.
func NewLoggerWith(out io.Writer, level string, json bool) *Logger {
	l := logrus.New()
	l.SetOutput(out)

	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &Logger{entry: l}
}

// Logrus exposes the underlying logger for components that log with fields.
func (l *Logger) Logrus() *logrus.Logger {
	return l.entry
}

func (l *Logger) Info(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

// NewDiscardLogger returns a Logger that drops everything. Handy in tests.
func NewDiscardLogger() *Logger {
	return NewLoggerWith(io.Discard, "panic", false)
}
