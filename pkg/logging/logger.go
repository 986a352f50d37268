package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. Every method is gated by the
// logger's level, so a Logger constructed with LevelWarn silently drops Info
// and Debug calls rather than requiring callers to check themselves. It is
// safe for concurrent use.
type Logger struct {
	// level is the least severe level this logger will emit. Lower numeric
	// values are more severe (see Level).
	level Level
	// prefix is any prefix specified for the logger.
	prefix string
	// output is the underlying *log.Logger used to emit formatted lines.
	output *log.Logger
}

// NewLogger creates a new root logger that writes to output and emits
// messages at or above level.
func NewLogger(level Level, output io.Writer) *Logger {
	return &Logger{
		level:  level,
		output: log.New(output, "", log.LstdFlags),
	}
}

// RootLogger is a disabled root logger, useful as a default for callers that
// don't want to wire a real logger through.
var RootLogger = &Logger{level: LevelDisabled, output: log.New(io.Discard, "", 0)}

// Sublogger creates a new sublogger with the specified name, inheriting this
// logger's level and output.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}

	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	return &Logger{
		level:  l.level,
		prefix: prefix,
		output: l.output,
	}
}

func (l *Logger) enabled(level Level) bool {
	return l != nil && l.level >= level
}

func (l *Logger) line(line string) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	return line
}

// Info logs at LevelInfo with fmt.Sprint semantics.
func (l *Logger) Info(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output.Output(3, l.line(fmt.Sprint(v...)))
	}
}

// Infof logs at LevelInfo with fmt.Sprintf semantics.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output.Output(3, l.line(fmt.Sprintf(format, v...)))
	}
}

// Debug logs at LevelDebug with fmt.Sprint semantics.
func (l *Logger) Debug(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output.Output(3, l.line(fmt.Sprint(v...)))
	}
}

// Debugf logs at LevelDebug with fmt.Sprintf semantics.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output.Output(3, l.line(fmt.Sprintf(format, v...)))
	}
}

// DebugWriter returns an io.Writer that writes lines at LevelDebug.
func (l *Logger) DebugWriter() io.Writer {
	if !l.enabled(LevelDebug) {
		return io.Discard
	}
	return &writer{callback: func(s string) { l.Debug(s) }}
}

// Warn logs err with a yellow "Warning:" prefix at LevelWarn.
func (l *Logger) Warn(err error) {
	if l.enabled(LevelWarn) {
		l.output.Output(3, l.line(color.YellowString("Warning: %v", err)))
	}
}

// Warnf logs a formatted warning at LevelWarn.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output.Output(3, l.line(color.YellowString("Warning: "+format, v...)))
	}
}

// Error logs err with a red "Error:" prefix at LevelError.
func (l *Logger) Error(err error) {
	if l.enabled(LevelError) {
		l.output.Output(3, l.line(color.RedString("Error: %v", err)))
	}
}
