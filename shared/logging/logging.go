// Package logging configures logrus and carries request scoped entries through contexts.
package logging

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config controls the process wide logger
type Config struct {
	Level       string
	Environment string
	Service     string
}

type contextKey struct{}

var base = logrus.NewEntry(logrus.StandardLogger())

// Init configures the standard logrus logger and returns the service entry
func Init(cfg Config) *logrus.Entry {
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Environment, "production") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	base = logrus.NewEntry(logger)
	if cfg.Service != "" {
		base = base.WithField("service", cfg.Service)
	}
	return base
}

// WithContext stores entry in ctx
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, contextKey{}, entry)
}

// FromContext returns the entry stored in ctx, or the service entry
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(contextKey{}).(*logrus.Entry); ok && entry != nil {
			return entry
		}
	}
	return base
}
