// Package logging is the leveled, field-structured logger used across the
// aggregation engine. It writes to a single io.Writer (stderr by default)
// in either text or json form.
package logging

import (
	"io"
	"os"
)

type Logger interface {
	Debug(message string, fields Fields)
	Info(message string, fields Fields)
	Warn(message string, fields Fields)
	Error(message string, fields Fields)

	IsDebug() bool
	IsInfo() bool

	Named(name string) Logger
}

// New builds a Logger writing to stderr. levelName is one of NEVER,
// DEBUG, INFO, WARN or ERROR; formatName is "text" or "json".
func New(levelName, formatName string) Logger {
	return NewWriterLogger(levelStringToLevel(levelName), formatToEnum(formatName), os.Stderr)
}

func NewWriterLogger(minLevel level, f format, w io.Writer) Logger {
	return &logger{
		minLevel: minLevel,
		format:   f,
		out:      w,
	}
}
