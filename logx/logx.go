// Package logx provides a standard logger implementation for the reference server.
package logx

import (
	"log"
	"os"
	"sync"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/types"
)

// DefaultLogger provides a basic logger implementation using the standard log package.
type DefaultLogger struct {
	logger *log.Logger
	level  protocol.LoggingLevel
	mu     sync.Mutex
}

// NewDefaultLogger creates a new logger writing to stderr with standard flags.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "[refserver] ", log.LstdFlags|log.Ltime|log.Lmsgprefix),
		level:  protocol.LogLevelInfo,
	}
}

// NewLogger creates a new logger instance at the level named by logType
// ("trace", "debug", "info", "warn", "error"). Unrecognized names default to info.
func NewLogger(logType string) Logger {
	logger := &DefaultLogger{
		logger: log.New(os.Stderr, "[refserver] ", log.LstdFlags|log.Ltime|log.Lmsgprefix),
		level:  protocol.LogLevelInfo,
	}

	switch logType {
	case "trace":
		logger.level = protocol.LogLevelTrace
	case "debug":
		logger.level = protocol.LogLevelDebug
	case "info":
		logger.level = protocol.LogLevelInfo
	case "warning", "warn":
		logger.level = protocol.LogLevelWarn
	case "error":
		logger.level = protocol.LogLevelError
	}

	return logger
}

// Debug logs a message at DEBUG level
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	if !l.IsLevelEnabled(protocol.LogLevelDebug) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("DEBUG: "+msg, args...)
}

// Info logs a message at INFO level
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	if !l.IsLevelEnabled(protocol.LogLevelInfo) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("INFO: "+msg, args...)
}

// Warn logs a message at WARN level
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	if !l.IsLevelEnabled(protocol.LogLevelWarn) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("WARN: "+msg, args...)
}

// Error logs a message at ERROR level. Errors are always logged.
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("ERROR: "+msg, args...)
}

// levelToSeverity maps a LoggingLevel to a number where higher means more
// permissive (logs more). trace is the most permissive, error the least.
func levelToSeverity(level protocol.LoggingLevel) int {
	switch level {
	case protocol.LogLevelTrace:
		return 100
	case protocol.LogLevelDebug:
		return 80
	case protocol.LogLevelInfo:
		return 60
	case protocol.LogLevelWarn:
		return 40
	case protocol.LogLevelError:
		return 20
	default:
		return 60
	}
}

// Ensure interface compliance
var _ types.Logger = (*DefaultLogger)(nil)

// Logger defines the interface for logging.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	SetLevel(level protocol.LoggingLevel)
	IsLevelEnabled(level protocol.LoggingLevel) bool
}

// SetLevel updates the logging level for the DefaultLogger.
func (l *DefaultLogger) SetLevel(level protocol.LoggingLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.logger.Printf("[LogX] Log level set to: %s", string(l.level))
}

// SetLogLevelFromString sets the logging level from a string representation.
func SetLogLevelFromString(logger Logger, levelStr string) {
	var level protocol.LoggingLevel

	switch levelStr {
	case "trace":
		level = protocol.LogLevelTrace
	case "debug":
		level = protocol.LogLevelDebug
	case "info":
		level = protocol.LogLevelInfo
	case "warn", "warning":
		level = protocol.LogLevelWarn
	case "error":
		level = protocol.LogLevelError
	default:
		level = protocol.LogLevelInfo
	}

	logger.SetLevel(level)
}

// StandardLoggerAdapter adapts a standard log.Logger to implement the Logger interface
type StandardLoggerAdapter struct {
	logger *log.Logger
	level  protocol.LoggingLevel
	mu     sync.Mutex
}

// NewStandardLoggerAdapter creates a Logger that wraps a standard Go log.Logger
func NewStandardLoggerAdapter(logger *log.Logger) Logger {
	if logger == nil {
		logger = log.New(os.Stderr, "[refserver] ", log.LstdFlags)
	}
	return &StandardLoggerAdapter{
		logger: logger,
		level:  protocol.LogLevelInfo,
	}
}

// Debug logs a debug message
func (a *StandardLoggerAdapter) Debug(format string, v ...interface{}) {
	if !a.IsLevelEnabled(protocol.LogLevelDebug) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Printf("DEBUG: "+format, v...)
}

// Info logs an info message
func (a *StandardLoggerAdapter) Info(format string, v ...interface{}) {
	if !a.IsLevelEnabled(protocol.LogLevelInfo) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Printf("INFO: "+format, v...)
}

// Warn logs a warning message
func (a *StandardLoggerAdapter) Warn(format string, v ...interface{}) {
	if !a.IsLevelEnabled(protocol.LogLevelWarn) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Printf("WARN: "+format, v...)
}

// Error logs an error message. Errors are always logged.
func (a *StandardLoggerAdapter) Error(format string, v ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Printf("ERROR: "+format, v...)
}

// SetLevel sets the logging level
func (a *StandardLoggerAdapter) SetLevel(level protocol.LoggingLevel) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.level = level
	a.logger.Printf("[LogX] Log level set to: %s", string(level))
}

// Ensure StandardLoggerAdapter implements Logger
var _ Logger = (*StandardLoggerAdapter)(nil)

// IsLevelEnabled reports whether a message at level would be emitted by this logger.
func (l *DefaultLogger) IsLevelEnabled(level protocol.LoggingLevel) bool {
	return levelToSeverity(l.level) >= levelToSeverity(level)
}

// IsLevelEnabled reports whether a message at level would be emitted by this adapter.
func (a *StandardLoggerAdapter) IsLevelEnabled(level protocol.LoggingLevel) bool {
	return levelToSeverity(a.level) >= levelToSeverity(level)
}
