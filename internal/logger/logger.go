// Package logger defines the debug hook interface used throughout the
// crawler, so that callers can route messages wherever they like
// without the engine hardcoding a destination.
package logger

import "log"

// DebugLogger receives the crawler's diagnostic output. Implementations
// are expected to be safe for concurrent use, since every long-lived
// goroutine in the engine writes through the same instance.
type DebugLogger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NullLogger sends everything to the standard logger with a level
// prefix. It's the default used when a caller doesn't provide one.
type NullLogger struct{}

func (l *NullLogger) Debugf(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}

func (l *NullLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

func (l *NullLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

// Discard drops every message. Useful in tests that don't want log spam.
type Discard struct{}

func (Discard) Debugf(string, ...interface{}) {}
func (Discard) Infof(string, ...interface{})  {}
func (Discard) Errorf(string, ...interface{}) {}
