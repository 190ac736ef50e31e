package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled logging.
// It wraps a zap logger whose sink can be swapped at runtime, so packages
// may hold on to GetLogger() before the CLI has parsed its flags.
type Logger struct {
	mu     sync.RWMutex
	level  zap.AtomicLevel
	zl     *zap.Logger
	closer func() error
}

// LogOptions selects where log output goes.
type LogOptions struct {
	// Path is a log file. When empty, logs go to stderr.
	Path string
	// Verbose enables debug output.
	Verbose bool
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the singleton logger instance.
// Until Configure is called it writes warnings and errors to stderr.
func GetLogger() *Logger {
	once.Do(func() {
		level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
		loggerInstance = &Logger{
			level: level,
			zl:    zap.New(zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stderr), level)),
		}
	})
	return loggerInstance
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return zapcore.NewConsoleEncoder(cfg)
}

// Configure points the logger at a file or stderr.
// The terminal UI owns stdout/stderr, so it always logs to a file.
func Configure(opts LogOptions) error {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer != nil {
		_ = l.closer()
		l.closer = nil
	}

	l.level.SetLevel(levelFor(opts.Verbose, opts.Path != ""))

	if opts.Path == "" {
		l.zl = zap.New(zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stderr), l.level))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Keep logging to stderr rather than dropping messages
		l.zl = zap.New(zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stderr), l.level))
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	l.zl = zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), l.level))
	l.closer = file.Close
	return nil
}

// levelFor returns the minimum level. File logs keep info messages since
// nobody is watching them interactively; stderr only shows problems.
func levelFor(verbose, toFile bool) zapcore.Level {
	switch {
	case verbose:
		return zapcore.DebugLevel
	case toFile:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

// Debug logs a debug message (only shown in verbose mode).
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.Zap().Debug(msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.Zap().Info(msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.Zap().Warn(msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.Zap().Error(msg, fields...)
}

// Sync flushes buffered entries and closes the log file, if any.
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.zl.Sync()
	if l.closer != nil {
		_ = l.closer()
		l.closer = nil
		l.zl = zap.New(zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stderr), l.level))
	}
	return err
}
