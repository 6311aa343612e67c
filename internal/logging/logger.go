// Package logging provides the leveled key/value logger used across the
// server. Output goes to stderr by default because stdout carries the
// JSON-RPC stream.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case tag written in each line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel accepts debug, info, warn (or warning) and error, in any case.
// An empty string means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes lines of the form
//
//	[prefix] 2024/01/02 15:04:05 [INFO] message key=value key=value
//
// Messages below the configured level are dropped. A Logger is safe for
// concurrent use.
type Logger struct {
	mu     sync.Mutex
	level  Level
	logger *log.Logger
	fields []interface{}
}

// NewLogger creates a logger writing to stderr at LevelInfo.
func NewLogger(prefix string) *Logger {
	return New(os.Stderr, prefix, LevelInfo)
}

// New creates a logger writing to w.
func New(w io.Writer, prefix string, level Level) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, "", LevelError+1)
}

// SetLevel changes the minimum level written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum level written.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// With returns a logger that appends keysAndValues to every line. The
// returned logger shares the parent's output and level at the time of the
// call.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	fields := make([]interface{}, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{level: l.level, logger: l.logger, fields: fields}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, msg, keysAndValues...)
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, msg string, keysAndValues ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	var b strings.Builder
	writeKV(&b, l.fields)
	writeKV(&b, keysAndValues)
	l.logger.Printf("[%s] %s%s", level, msg, b.String())
}

// writeKV appends " key=value" pairs; a trailing key without a value is
// dropped. Values containing spaces are quoted.
func writeKV(b *strings.Builder, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		v := fmt.Sprintf("%v", kv[i+1])
		if strings.ContainsAny(v, " \t\n\"") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(b, " %v=%s", kv[i], v)
	}
}
