package logging

import "log/slog"

// RouterLogger adapts *slog.Logger to the transport.Logger interface.
type RouterLogger struct {
	logger *slog.Logger
}

// NewRouterLogger creates a new RouterLogger wrapping a slog.Logger.
func NewRouterLogger(logger *slog.Logger) *RouterLogger {
	return &RouterLogger{logger: logger}
}

// Debug logs a debug message with optional key-value pairs.
func (l *RouterLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

// Info logs an info message with optional key-value pairs.
func (l *RouterLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

// Error logs an error message with optional key-value pairs.
func (l *RouterLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}
