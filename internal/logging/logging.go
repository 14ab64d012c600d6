// Package logging wires the engine's diagnostic output through a single
// structured logger so library code (validator findings, composite
// conflicts, decode warnings) and CLI commands agree on level and field
// conventions instead of mixing log.Printf and fmt.Fprintf(os.Stderr, ...).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// std is the package-wide structured logger returned by Default. The CLI
// root command sets its level/formatter through Configure.
var std = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Default returns the package's shared logger.
func Default() *logrus.Logger {
	return std
}

// Configure applies a level and output format parsed from the layered
// config (internal/config)'s logging.level / logging.format /
// logging.verbose fields.
func Configure(level, format string, verbose bool) error {
	if verbose {
		level = "debug"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(parsed)

	switch format {
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{})
	default:
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// WithField is a convenience wrapper around Default().WithField. The
// library packages under pkg/mvtengine do not import this package.
func WithField(key string, value any) *logrus.Entry {
	return std.WithField(key, value)
}
