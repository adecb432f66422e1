package logging

import (
	"io"
	"sync"
)

type logger struct {
	name     string
	minLevel level
	format   format

	// guards out; passes log from multiple worker goroutines
	mu  sync.Mutex
	out io.Writer
}

func (l *logger) Named(name string) Logger {
	child := &logger{
		name:     name,
		minLevel: l.minLevel,
		format:   l.format,
		out:      l.out,
	}
	if l.name != "" {
		child.name = l.name + "." + name
	}
	return child
}

func (l *logger) Debug(message string, fields Fields) {
	l.logAtLevel(levelDebug, message, fields)
}

func (l *logger) Info(message string, fields Fields) {
	l.logAtLevel(levelInfo, message, fields)
}

func (l *logger) Warn(message string, fields Fields) {
	l.logAtLevel(levelWarn, message, fields)
}

func (l *logger) Error(message string, fields Fields) {
	l.logAtLevel(levelError, message, fields)
}

func (l *logger) IsDebug() bool {
	return l.minLevel <= levelDebug
}

func (l *logger) IsInfo() bool {
	return l.minLevel <= levelInfo
}

func (l *logger) logAtLevel(lvl level, message string, fields Fields) {
	if l.minLevel > lvl {
		return
	}

	var line string
	switch l.format {
	case formatJSON:
		line = jsonFormatter(lvl, l.name, message, fields)
	default:
		line = textFormatter(lvl, l.name, message, fields)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, line+"\n")
}

// Null is the null implementation of Logger.
var Null Logger = nullLogger(struct{}{})

type nullLogger struct{}

func (nl nullLogger) Debug(message string, fields Fields) {}
func (nl nullLogger) Info(message string, fields Fields)  {}
func (nl nullLogger) Warn(message string, fields Fields)  {}
func (nl nullLogger) Error(message string, fields Fields) {}

func (nl nullLogger) IsDebug() bool { return false }
func (nl nullLogger) IsInfo() bool  { return false }

func (nl nullLogger) Named(name string) Logger { return nl }
