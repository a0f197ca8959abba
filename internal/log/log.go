// Package log provides category-tagged debug logging for docval.
// Logging stays off unless Init (file) or InitWriter is called, which the CLI
// does for --debug or DOCVAL_DEBUG.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/docval/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name such as "warn" into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelDebug, fmt.Errorf("unknown log level %q", s)
	}
}

// Category groups related log messages.
type Category string

const (
	CatConfig   Category = "config"   // Configuration loading/saving
	CatCatalog  Category = "catalog"  // Catalog parsing and set assembly
	CatRegistry Category = "registry" // Executor set registration
	CatExec     Category = "exec"     // Layer execution and prerequisite gating
	CatEngine   Category = "engine"   // Rule pack loading and evaluation
	CatCache    Category = "cache"    // Compiled rule cache
	CatWatcher  Category = "watcher"  // File watcher events
	CatTrace    Category = "trace"    // Tracing provider lifecycle
)

// Logger writes formatted entries and mirrors them to a broker.
type Logger struct {
	mu       sync.Mutex
	closer   io.Closer
	out      io.Writer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var (
	current  *Logger
	initOnce sync.Once
)

// Init opens path for appending and installs the global logger. The returned
// func closes the file. Only the first call has any effect.
func Init(path string) (func(), error) {
	var openErr error
	initOnce.Do(func() {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: user-chosen debug log path
		if err != nil {
			openErr = err
			return
		}
		l := newLogger(f)
		l.closer = f
		current = l
	})
	switch {
	case openErr != nil:
		return nil, openErr
	case current == nil:
		return nil, fmt.Errorf("log: already initialized or a previous Init failed")
	}
	l := current
	return func() { _ = l.closer.Close() }, nil
}

// InitWriter installs a global logger writing to w, replacing any previous one.
func InitWriter(w io.Writer) func() {
	l := newLogger(w)
	current = l
	return func() {
		l.broker.Close()
		if current == l {
			current = nil
		}
	}
}

func newLogger(w io.Writer) *Logger {
	return &Logger{out: w, enabled: true, broker: pubsub.NewBroker[string]()}
}

func (l *Logger) configure(fn func(*Logger)) {
	l.mu.Lock()
	fn(l)
	l.mu.Unlock()
}

// SetEnabled turns the global logger on or off.
func SetEnabled(enabled bool) {
	if l := current; l != nil {
		l.configure(func(l *Logger) { l.enabled = enabled })
	}
}

// SetMinLevel drops entries below level.
func SetMinLevel(level Level) {
	if l := current; l != nil {
		l.configure(func(l *Logger) { l.minLevel = level })
	}
}

// Scope carries fields that are appended to every entry logged through it,
// e.g. the run ID and set of a validation run.
type Scope struct {
	cat    Category
	fields []any
}

// With returns a scope for cat that always logs fields.
func With(cat Category, fields ...any) Scope {
	return Scope{cat: cat, fields: fields}
}

// With returns a child scope with extra fields.
func (s Scope) With(fields ...any) Scope {
	merged := make([]any, 0, len(s.fields)+len(fields))
	merged = append(merged, s.fields...)
	return Scope{cat: s.cat, fields: append(merged, fields...)}
}

func (s Scope) Debug(msg string, fields ...any) { s.emit(LevelDebug, msg, fields) }
func (s Scope) Info(msg string, fields ...any)  { s.emit(LevelInfo, msg, fields) }
func (s Scope) Warn(msg string, fields ...any)  { s.emit(LevelWarn, msg, fields) }
func (s Scope) Error(msg string, fields ...any) { s.emit(LevelError, msg, fields) }

// ErrorErr logs at error level with err appended as the "error" field.
func (s Scope) ErrorErr(msg string, err error, fields ...any) {
	errText := "<nil>"
	if err != nil {
		errText = err.Error()
	}
	s.emit(LevelError, msg, append(fields, "error", errText))
}

func (s Scope) emit(level Level, msg string, fields []any) {
	if len(s.fields) > 0 {
		fields = append(append([]any(nil), s.fields...), fields...)
	}
	write(level, s.cat, msg, fields)
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }
func Info(cat Category, msg string, fields ...any)  { write(LevelInfo, cat, msg, fields) }
func Warn(cat Category, msg string, fields ...any)  { write(LevelWarn, cat, msg, fields) }
func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr logs msg at error level with err as a field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	With(cat).ErrorErr(msg, err, fields...)
}

func write(level Level, cat Category, msg string, fields []any) {
	l := current
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	line := format(time.Now(), level, cat, msg, fields...)
	if l.out != nil {
		_, _ = io.WriteString(l.out, line)
	}
	l.broker.Publish(pubsub.LogEntry, line)
}

// format renders one line:
//
//	2025-12-06T10:45:00 [WARN] [exec] prerequisite not met set=peppol:invoice:1.0 path="a b.xml"
//
// Values containing spaces, quotes or '=' are quoted.
func format(ts time.Time, level Level, cat Category, msg string, fields ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", ts.Format("2006-01-02T15:04:05"), level, cat, msg)
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		val := "<missing>"
		if i+1 < len(fields) {
			val = fmt.Sprint(fields[i+1])
		}
		if val == "" || strings.ContainsAny(val, " \t\"=") {
			val = strconv.Quote(val)
		}
		b.WriteString(" " + key + "=" + val)
	}
	b.WriteByte('\n')
	return b.String()
}

// NewListener subscribes to log entries. It returns nil when logging is off.
func NewListener(ctx context.Context) *pubsub.Listener[string] {
	l := current
	if l == nil {
		return nil
	}
	return pubsub.NewListener[string](ctx, l.broker, pubsub.LogEntry)
}
