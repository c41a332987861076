// Package logger provides the structured logging interface used throughout
// the lock manager, binding cache, and request queue.
package logger

// Logger defines an interface for structured, context-aware logging.
//
// All logging methods support structured output by accepting a message and a
// variadic list of key-value pairs. Keys must be strings and must alternate
// with values in the form: key1, val1, key2, val2, ...
type Logger interface {
	// Debugw logs a debug-level message with optional structured context.
	Debugw(msg string, keysAndValues ...any)

	// Infow logs an info-level message with optional structured context.
	Infow(msg string, keysAndValues ...any)

	// Warnw logs a warning-level message with optional structured context.
	Warnw(msg string, keysAndValues ...any)

	// Errorw logs an error-level message with optional structured context.
	Errorw(msg string, keysAndValues ...any)

	// Fatalw logs a fatal-level message with optional structured context and
	// then terminates the application.
	Fatalw(msg string, keysAndValues ...any)

	// With adds arbitrary key-value pairs to the logger's context.
	With(keysAndValues ...any) Logger

	// WithNodeID adds a node identifier to the logger's context, used by the
	// request queue to tag log lines with the peer they concern.
	WithNodeID(id int64) Logger

	// WithComponent adds a component label (e.g. "lock", "cache", "queue")
	// to categorize log output.
	WithComponent(name string) Logger
}
