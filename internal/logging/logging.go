package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "tab-popup-control.log"

var (
	mu           sync.Mutex
	traceEnabled bool
	logPath      = defaultLogFile
	out          io.Writer
	logger       *slog.Logger
	level        = new(slog.LevelVar)
)

// writer lazily opens the rotating log file. Callers hold mu.
func writer() io.Writer {
	if out == nil {
		out = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    25,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		}
	}
	return out
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(writer(), &slog.HandlerOptions{Level: level}))
	}
	return logger
}

// Error writes errors to the shared log file.
func Error(err error) {
	if err == nil {
		return
	}
	current().Error(err.Error())
}

// Warn writes a structured warning line.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Info writes a structured informational line.
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Debug lines are only written when verbose logging is on.
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Logger exposes the shared logger for components that take a *slog.Logger.
func Logger() *slog.Logger {
	return current()
}

// SetVerbose lowers the log level to debug.
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelInfo)
}

// SetTraceEnabled toggles emission of structured trace entries.
func SetTraceEnabled(enabled bool) {
	mu.Lock()
	traceEnabled = enabled
	mu.Unlock()
}

// Trace appends a structured JSON entry to the shared log when tracing is enabled.
func Trace(event string, payload interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !traceEnabled {
		return
	}

	entry := struct {
		Time    time.Time   `json:"time"`
		Event   string      `json:"event"`
		Payload interface{} `json:"payload,omitempty"`
	}{
		Time:    time.Now().UTC(),
		Event:   event,
		Payload: payload,
	}

	if err := json.NewEncoder(writer()).Encode(entry); err != nil {
		fmt.Fprintf(os.Stderr, "trace encoding failed: %v\n", err)
	}
}

// Configure sets the log destination. Empty values fall back to the default
// path. Directories are created automatically when missing.
func Configure(path string) {
	mu.Lock()
	defer mu.Unlock()
	if closer, ok := out.(io.Closer); ok {
		_ = closer.Close()
	}
	out = nil
	logger = nil
	if strings.TrimSpace(path) == "" {
		logPath = defaultLogFile
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
		logPath = defaultLogFile
		return
	}
	logPath = path
}

// SetOutput redirects all log output to w. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = nil
}
