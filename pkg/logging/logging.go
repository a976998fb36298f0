package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
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

// SlogLevel maps the level onto log/slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogEntry is the structured log entry passed to the dashboard.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

// Format renders the entry as a single activity log line.
func (e LogEntry) Format() string {
	line := fmt.Sprintf("%s [%s] %s: %s", e.Timestamp.Format("15:04:05"), e.Level, e.Subsystem, e.Message)
	if e.Err != nil {
		line += ": " + e.Err.Error()
	}
	return line
}

const tuiChannelBufferSize = 2048

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	minLevel      = LevelInfo
	tuiLogChannel chan LogEntry
	droppedTUI    atomic.Int64
)

// InitForCLI initializes logging for non-interactive commands. Entries are
// written as slog text records to output.
func InitForCLI(level LogLevel, output io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if output == nil {
		output = os.Stderr
	}
	defaultLogger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level.SlogLevel()}))
	slog.SetDefault(defaultLogger)
	minLevel = level
	tuiLogChannel = nil
}

// InitForTUI switches logging to channel mode. The dashboard drains the
// returned channel into its activity log. Writing to the terminal while the
// alternate screen is active would corrupt the display, so nothing is
// printed in this mode.
func InitForTUI(level LogLevel) <-chan LogEntry {
	mu.Lock()
	defer mu.Unlock()

	minLevel = level
	tuiLogChannel = make(chan LogEntry, tuiChannelBufferSize)
	droppedTUI.Store(0)
	return tuiLogChannel
}

// CloseTUIChannel closes the TUI log channel and returns to CLI logging on
// stderr. Call it once the dashboard has exited.
func CloseTUIChannel() {
	mu.Lock()
	ch := tuiLogChannel
	tuiLogChannel = nil
	level := minLevel
	mu.Unlock()

	if ch != nil {
		close(ch)
	}
	InitForCLI(level, os.Stderr)
}

// DroppedTUIEntries reports how many entries were discarded because the
// dashboard fell behind.
func DroppedTUIEntries() int64 {
	return droppedTUI.Load()
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if level < minLevel {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	if tuiLogChannel != nil {
		entry := LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		}
		// Never block the caller on a slow UI; the action layer logs from
		// request goroutines.
		select {
		case tuiLogChannel <- entry:
		default:
			droppedTUI.Add(1)
		}
		return
	}

	logger := defaultLogger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}
