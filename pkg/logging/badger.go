package logging

import (
	"strings"

	"go.uber.org/zap"
)

// BadgerLogger routes badger's printf-style logging into zap.
type BadgerLogger struct {
	sugar *zap.SugaredLogger
}

// NewBadgerLogger wraps logger. Badger is chatty at info level, so its info
// messages are demoted to debug.
func NewBadgerLogger(logger *zap.Logger) *BadgerLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgerLogger{sugar: logger.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Errorf logs a formatted error message
func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(trim(format), args...)
}

// Warningf logs a formatted warning message
func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(trim(format), args...)
}

// Infof logs a formatted informational message
func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.sugar.Debugf(trim(format), args...)
}

// Debugf logs a formatted debug message
func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(trim(format), args...)
}

func trim(format string) string {
	return strings.TrimRight(format, "\n")
}
