package logger

import (
	"fmt"
	"os"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs to stdout/stderr.
// Debug lines are dropped unless the logger was created verbose.
type ConsoleLogger struct {
	verbose bool
}

func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return &ConsoleLogger{verbose: verbose}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	fmt.Printf("[INFO] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.verbose {
		return
	}
	fmt.Printf("[DEBUG] "+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used by tests and in TUI mode so log output does not interfere with the display.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}

// prefixed prepends a component tag such as "[Poller]" to every message.
type prefixed struct {
	prefix string
	next   Logger
}

// WithPrefix returns a Logger that tags every message with prefix.
func WithPrefix(l Logger, prefix string) Logger {
	return &prefixed{prefix: "[" + prefix + "] ", next: l}
}

func (p *prefixed) Info(msg string, args ...interface{})  { p.next.Info(p.prefix+msg, args...) }
func (p *prefixed) Error(msg string, args ...interface{}) { p.next.Error(p.prefix+msg, args...) }
func (p *prefixed) Debug(msg string, args ...interface{}) { p.next.Debug(p.prefix+msg, args...) }
