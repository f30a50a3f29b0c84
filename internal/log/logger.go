package log

// Logger is the diagnostic channel of the filter. It never carries anonymized output, which is
// written to the output stream alone.
type Logger interface {
	// Debug logs a debug message.
	Debug(format string, v ...interface{})

	// Info logs an informational message.
	Info(format string, v ...interface{})

	// Warn logs a warning message.
	Warn(format string, v ...interface{})

	// Error logs an error message.
	Error(format string, v ...interface{})

	// Level returns the currently configured logging level.
	Level() Level
}

// NopLogger discards every message. Tests that do not inspect diagnostics use it.
type NopLogger struct{}

// NewNopLogger creates a Logger that discards all diagnostics.
func NewNopLogger() Logger {
	return &NopLogger{}
}

// Debug noops.
func (l *NopLogger) Debug(format string, v ...interface{}) {}

// Info noops.
func (l *NopLogger) Info(format string, v ...interface{}) {}

// Warn noops.
func (l *NopLogger) Warn(format string, v ...interface{}) {}

// Error noops.
func (l *NopLogger) Error(format string, v ...interface{}) {}

// Level reports Error, the least verbose level.
func (l *NopLogger) Level() Level {
	return Error
}
