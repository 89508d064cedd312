// Package diag provides the diagnostics side channel of the CPU core.
//
// Nothing in the core reads diagnostics back. Removing the sink or the
// tracer never changes emulated behavior.
package diag

import (
	"github.com/sirupsen/logrus"
)

// Sink receives line-oriented diagnostic messages tagged by component.
type Sink interface {
	Logf(tag, format string, args ...interface{})
}

// Nop discards everything.
type Nop struct{}

// Logf implements Sink.
func (Nop) Logf(string, string, ...interface{}) {}

// LogrusSink forwards messages to a logrus logger at debug level.
type LogrusSink struct {
	logger *logrus.Logger
}

// NewLogrusSink creates a sink backed by logger. A nil logger uses the
// logrus standard logger.
func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{logger: logger}
}

// Logf implements Sink.
func (s *LogrusSink) Logf(tag, format string, args ...interface{}) {
	if !s.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	s.logger.WithFields(logrus.Fields{"component": tag}).Debugf(format, args...)
}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}
