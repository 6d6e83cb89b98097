// Package log keeps a request scoped logrus entry in the context so that
// services log with the request id, account and tenant attached.
package log

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type contextLoggerKey struct{}

var stdEntry = logrus.NewEntry(logrus.StandardLogger())

// Setup configures the standard logger.  level is a logrus level name and
// format is "json" or "text"; unknown values fall back to info and text.
func Setup(level, format string) {
	logrus.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// WithFields creates a new logger with merged fields if
// there is already a logger in context.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, contextLoggerKey{}, GetLogger(ctx).WithFields(fields))
}

// WithLogger returns a new context with the provided logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, contextLoggerKey{}, logger)
}

// GetLogger retrieves the current logger from the context. If no logger is
// available, the standard logger is returned.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return stdEntry
	}
	if logger, ok := ctx.Value(contextLoggerKey{}).(*logrus.Entry); ok {
		return logger
	}
	return stdEntry
}
