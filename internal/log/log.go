// Package log provides structured logging for urlpad.
//
// Entries always land in an in-memory ring buffer, which the TUI log overlay
// and the diagnostics of failed submissions read from. Writing to a file is
// opt-in via --debug or URLPAD_DEBUG.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
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

// ParseLevel maps a level name such as "WARN" or "warn" to a Level.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "DEBUG", "debug":
		return LevelDebug, true
	case "INFO", "info":
		return LevelInfo, true
	case "WARN", "warn":
		return LevelWarn, true
	case "ERROR", "error":
		return LevelError, true
	}
	return LevelDebug, false
}

// Category groups related log messages.
type Category string

const (
	CatSubmit   Category = "submit"   // Outbound submissions and their outcomes
	CatDebounce Category = "debounce" // Timer arming and firing
	CatHTTP     Category = "http"     // Transport-level request/response tracing
	CatConfig   Category = "config"   // Configuration loading
	CatWatch    Category = "watch"    // File watch events
	CatUI       Category = "ui"       // UI component updates
	CatTrace    Category = "trace"    // Tracer provider lifecycle
)

// DefaultBufferSize is the ring buffer capacity used when none is given.
const DefaultBufferSize = 500

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	buffer   *RingBuffer
	enabled  bool
	minLevel Level
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func setCurrent(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Init initializes the global logger. An empty path keeps entries in the
// ring buffer only. Returns a cleanup function that closes the log file.
func Init(path string, bufferSize int) (func(), error) {
	l, err := newLogger(path, bufferSize)
	if err != nil {
		return nil, err
	}
	setCurrent(l)
	return func() {
		if l.file != nil {
			_ = l.file.Close()
		}
	}, nil
}

// InitWithTeaLog uses tea.LogToFile for initialization so bubbletea's own
// debug output shares the file.
func InitWithTeaLog(path string, prefix string, bufferSize int) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	setCurrent(&Logger{
		file:     f,
		writer:   f,
		buffer:   NewRingBuffer(bufferSize),
		enabled:  true,
		minLevel: LevelDebug,
	})

	return func() { _ = f.Close() }, nil
}

// InitWriter installs a logger writing to w. Intended for CLI subcommands
// that log to stderr and for tests.
func InitWriter(w io.Writer, bufferSize int, minLevel Level) {
	setCurrent(&Logger{
		writer:   w,
		buffer:   NewRingBuffer(bufferSize),
		enabled:  true,
		minLevel: minLevel,
	})
}

func newLogger(path string, bufferSize int) (*Logger, error) {
	l := &Logger{
		buffer:   NewRingBuffer(bufferSize),
		enabled:  true,
		minLevel: LevelInfo,
	}
	if path == "" {
		return l, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is user-controlled debug log path
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	l.file = f
	l.writer = f
	l.minLevel = LevelDebug
	return l, nil
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

// Format renders one entry without its trailing newline.
// Format: 2026-10-16T10:45:00 [ERROR] [submit] message key=value key2=value2
func Format(ts time.Time, level Level, cat Category, msg string, fields ...any) string {
	entry := fmt.Sprintf("%s [%s] [%s] %s", ts.Format("2006-01-02T15:04:05"), level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		entry += fmt.Sprintf(" %v=%v", fields[i], fields[i+1])
	}
	// Orphan key with no value
	if len(fields)%2 != 0 {
		entry += fmt.Sprintf(" %v=<missing>", fields[len(fields)-1])
	}
	return entry
}

func log(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.minLevel {
		return
	}

	entry := Format(time.Now(), level, cat, msg, fields...) + "\n"

	if l.writer != nil {
		_, _ = l.writer.Write([]byte(entry))
	}

	if l.buffer != nil {
		l.buffer.Add(entry)
	}
}

// GetRecentLogs returns recent log entries from the ring buffer.
func GetRecentLogs(count int) []string {
	l := current()
	if l == nil || l.buffer == nil {
		return nil
	}
	return l.buffer.GetLast(count)
}

// ClearBuffer clears the ring buffer.
func ClearBuffer() {
	l := current()
	if l == nil || l.buffer == nil {
		return
	}
	l.buffer.Clear()
}

// Matching returns buffered entries containing every given substring.
func Matching(substrs ...string) []string {
	l := current()
	if l == nil || l.buffer == nil {
		return nil
	}
	return l.buffer.Matching(substrs...)
}
