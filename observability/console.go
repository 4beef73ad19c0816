package observability

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Level limits what a ConsoleLogger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	debugColor = color.New(color.Faint)
)

// ConsoleLogger writes one line per event to an io.Writer. Warnings and
// errors are colorized when the writer is a terminal (fatih/color handles
// the TTY detection). Safe for concurrent use.
type ConsoleLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  Level
	fields []Field
}

// NewConsoleLogger returns a logger writing to out at the given level.
func NewConsoleLogger(out io.Writer, level Level) *ConsoleLogger {
	return &ConsoleLogger{mu: &sync.Mutex{}, out: out, level: level}
}

func (l *ConsoleLogger) Debug(msg string, fields ...Field) {
	l.emit(LevelDebug, debugColor, "debug", msg, fields)
}

func (l *ConsoleLogger) Info(msg string, fields ...Field) {
	l.emit(LevelInfo, nil, "info", msg, fields)
}

func (l *ConsoleLogger) Warn(msg string, fields ...Field) {
	l.emit(LevelWarn, warnColor, "warn", msg, fields)
}

func (l *ConsoleLogger) Error(msg string, fields ...Field) {
	l.emit(LevelError, errorColor, "error", msg, fields)
}

func (l *ConsoleLogger) With(fields ...Field) Logger {
	child := *l
	child.fields = append(append([]Field{}, l.fields...), fields...)
	return &child
}

func (l *ConsoleLogger) emit(lv Level, c *color.Color, tag, msg string, fields []Field) {
	if lv < l.level {
		return
	}
	line := tag + ": " + msg
	for _, f := range l.fields {
		line += fmt.Sprintf(" %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key(), f.Value())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c != nil {
		c.Fprintln(l.out, line)
		return
	}
	fmt.Fprintln(l.out, line)
}
