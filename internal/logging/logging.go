// Package logging configures the application's slog loggers: a structured
// JSON logger on stdout, a human-readable logger on stderr, and per-service
// rotating file loggers.
package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with structured and human-readable
// loggers and installs the structured logger as the slog default.
func Init(level slog.Level) {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	}))

	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	}))

	slog.SetDefault(structuredLogger)
}

// Structured returns the JSON logger, falling back to the slog default when
// Init has not been called.
func Structured() *slog.Logger {
	if structuredLogger == nil {
		return slog.Default()
	}
	return structuredLogger
}

// HumanReadable returns the text logger for operator-facing output.
func HumanReadable() *slog.Logger {
	if humanReadableLogger == nil {
		return slog.Default()
	}
	return humanReadableLogger
}

// File rotation defaults for per-service log files.
const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// Per-service file output state, guarded by fileMu. Handlers are created
// lazily on the first ForService call for a given name.
var (
	fileMu       sync.Mutex
	fileDir      string
	fileLevel    slog.Leveler
	fileHandlers = map[string]slog.Handler{}
	fileClosers  []func() error
)

// newFileHandler creates a JSON slog.Handler writing to a rotating log
// file. The returned closer flushes and closes the underlying file.
func newFileHandler(filePath string, level slog.Leveler) (slog.Handler, func() error, error) {
	// lumberjack doesn't create directories
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   false,
	}

	handler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	return handler, logWriter.Close, nil
}

// EnableFileOutput routes every logger handed out by ForService into a
// rotating per-service log file under dir, in addition to the structured
// stdout stream. Call it right after Init, before services construct their
// loggers; loggers created earlier keep writing to stdout only.
func EnableFileOutput(dir string, level slog.Leveler) {
	fileMu.Lock()
	defer fileMu.Unlock()
	fileDir = dir
	fileLevel = level
}

// CloseFileOutput flushes and closes every per-service log file and
// disables file output. Safe to call when file output was never enabled.
func CloseFileOutput() error {
	fileMu.Lock()
	defer fileMu.Unlock()

	var errs []error
	for _, closeFn := range fileClosers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	fileClosers = nil
	fileHandlers = map[string]slog.Handler{}
	fileDir = ""
	return errors.Join(errs...)
}

// fileHandlerFor returns the rotating file handler for the service,
// creating it on first use. Returns nil when file output is disabled or
// the file cannot be opened; callers then log to stdout only.
func fileHandlerFor(serviceName string) slog.Handler {
	fileMu.Lock()
	defer fileMu.Unlock()

	if fileDir == "" {
		return nil
	}
	if h, ok := fileHandlers[serviceName]; ok {
		return h
	}

	path := filepath.Join(fileDir, serviceName+".log")
	handler, closeFn, err := newFileHandler(path, fileLevel)
	if err != nil {
		slog.Default().Warn("file logging unavailable for service",
			"service", serviceName, "path", path, "error", err)
		return nil
	}
	fileHandlers[serviceName] = handler
	fileClosers = append(fileClosers, closeFn)
	return handler
}

// ForService returns a logger tagged with the given service name. With
// file output enabled the logger writes to both the structured stream and
// the service's rotating log file.
func ForService(serviceName string) *slog.Logger {
	base := Structured()
	if fh := fileHandlerFor(serviceName); fh != nil {
		return slog.New(newMultiHandler(base.Handler(), fh)).With("service", serviceName)
	}
	return base.With("service", serviceName)
}

// multiHandler fans one record out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func newMultiHandler(handlers ...slog.Handler) *multiHandler {
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
