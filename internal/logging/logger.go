// Package logging provides the console and rotating-file logger used by
// submitq.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a Logger
type Options struct {
	// Writer receives console output; defaults to os.Stderr
	Writer io.Writer
	// LogFile enables a rotating file log with timestamps and attributes
	LogFile string
	// Debug enables debug messages on the console. The DEBUG environment
	// variable enables them too.
	Debug bool
	// Quiet suppresses console output; the file log is unaffected
	Quiet bool
}

// simpleHandler writes messages without timestamps, levels or attributes
type simpleHandler struct {
	writer    io.Writer
	debugMode bool
	quiet     bool
	decorate  bool
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.quiet {
		return false
	}
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *simpleHandler) Handle(_ context.Context, record slog.Record) error {
	msg := record.Message
	switch {
	case record.Level >= slog.LevelError:
		msg = h.prefix("❌ ", "error: ") + msg
	case record.Level >= slog.LevelWarn:
		msg = h.prefix("⚠️  ", "warning: ") + msg
	}
	_, err := fmt.Fprintln(h.writer, msg)
	return err
}

func (h *simpleHandler) prefix(fancy, plain string) string {
	if h.decorate {
		return fancy
	}
	return plain
}

func (h *simpleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *simpleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// multiHandler fans out log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// createLumberjackLogger creates a lumberjack logger with configuration from environment variables
func createLumberjackLogger(logFilePath string) *lumberjack.Logger {
	config := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   false,
	}

	if maxSizeStr := os.Getenv("SUBMITQ_LOG_MAX_SIZE"); maxSizeStr != "" {
		if maxSize, err := strconv.Atoi(maxSizeStr); err == nil && maxSize > 0 {
			config.MaxSize = maxSize
		}
	}
	if maxBackupsStr := os.Getenv("SUBMITQ_LOG_MAX_BACKUPS"); maxBackupsStr != "" {
		if maxBackups, err := strconv.Atoi(maxBackupsStr); err == nil && maxBackups >= 0 {
			config.MaxBackups = maxBackups
		}
	}
	if maxAgeStr := os.Getenv("SUBMITQ_LOG_MAX_AGE"); maxAgeStr != "" {
		if maxAge, err := strconv.Atoi(maxAgeStr); err == nil && maxAge > 0 {
			config.MaxAge = maxAge
		}
	}

	return config
}

// Logger provides printf-style logging on top of slog
type Logger struct {
	logger    *slog.Logger
	logWriter io.Closer
}

// New creates a logger from options
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	console := &simpleHandler{
		writer:    writer,
		debugMode: opts.Debug || os.Getenv("DEBUG") != "",
		quiet:     opts.Quiet,
		decorate:  isTerminal(writer),
	}
	handlers := []slog.Handler{console}

	l := &Logger{}
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		lj := createLumberjackLogger(opts.LogFile)
		l.logWriter = lj

		// Always log everything to file
		fileHandler := slog.NewTextHandler(lj, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		})
		handlers = append(handlers, fileHandler)
	}

	l.logger = slog.New(&multiHandler{handlers: handlers})
	return l, nil
}

// Discard returns a logger that drops everything, for tests and library use
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// With returns a logger that attaches the given attributes to every record.
// Attributes only show up in the file log.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), logWriter: l.logWriter}
}

// Slog exposes the underlying slog logger
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

func (l *Logger) log(level slog.Level, format string, args []any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.logger.Log(context.Background(), level, msg)
}

// Info writes an info message
func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args)
}

// Warn writes a warning message
func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, format, args)
}

// Error writes an error message
func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, format, args)
}

// Debug writes a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args)
}

// Close closes the log file if one was opened
func (l *Logger) Close() error {
	if l.logWriter != nil {
		return l.logWriter.Close()
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
