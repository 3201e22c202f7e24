package logging

import (
	"context"
	"io"
	"maps"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogger writes structured text lines through logrus.
// Debug/Info go to the configured output, Warn and above are never filtered
// by field presets.
type DefaultLogger struct {
	entry  *logrus.Entry
	fields Fields
}

// NewDefaultLogger creates a logger writing to stderr at InfoLevel
func NewDefaultLogger() *DefaultLogger {
	return NewDefaultLoggerWithOutput(os.Stderr, isTerminal())
}

// NewDefaultLoggerWithOutput creates a logger writing to w.
func NewDefaultLoggerWithOutput(w io.Writer, colors bool) *DefaultLogger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors: !colors,
		ForceColors:   colors,
		FullTimestamp: true,
	})

	return &DefaultLogger{
		entry:  logrus.NewEntry(base),
		fields: make(Fields),
	}
}

func isTerminal() bool {
	if fileInfo, _ := os.Stderr.Stat(); fileInfo != nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func (d *DefaultLogger) with(fields []Fields) *logrus.Entry {
	if len(fields) == 0 {
		return d.entry
	}
	merged := make(logrus.Fields)
	for _, f := range fields {
		maps.Copy(merged, logrus.Fields(f))
	}
	return d.entry.WithFields(merged)
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.with(fields).Debug(msg)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.with(fields).Info(msg)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.with(fields).Warn(msg)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.with(fields).WithError(err).Error(msg)
}

// Fatal logs and exits the process with status 1.
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.with(fields).WithError(err).Fatal(msg)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		entry:  d.entry.WithFields(logrus.Fields(newFields)),
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel changes the level of the underlying logrus logger, which is shared
// by every logger derived through WithFields.
func (d *DefaultLogger) SetLevel(level Level) {
	d.entry.Logger.SetLevel(toLogrus(level))
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// NoOpLogger discards everything; tests and library callers that want silence use it.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
