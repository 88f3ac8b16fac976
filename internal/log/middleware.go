package log

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// NewContext returns a context carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the request-scoped logger, falling back to one built
// on the default slog handler.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
			return logger
		}
	}
	return New(Config{Handler: slog.Default().Handler(), Component: ComponentApp})
}

// FromContextOr returns the request-scoped logger, or fallback when ctx has
// none.
func FromContextOr(ctx context.Context, fallback *Logger) *Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
			return logger
		}
	}
	return fallback
}

// LogError logs a failure with its component and operation.
func LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	FromContext(ctx).WithComponent(component).ErrorContext(ctx, msg,
		fields.WithError(err).WithOperation(operation).ToSlice()...)
}
